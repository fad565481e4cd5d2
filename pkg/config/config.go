package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/arcanium-studios/arcanium-backend/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ARCANIUM_APP_ENV" required:"true"`
	Port         string `envconfig:"ARCANIUM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ARCANIUM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARCANIUM_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"ARCANIUM_LOG_FORMAT"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ARCANIUM_DB_DSN"`
	Driver string `envconfig:"ARCANIUM_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ARCANIUM_DB_HOST"`
	Port     int    `envconfig:"ARCANIUM_DB_PORT" default:"5432"`
	User     string `envconfig:"ARCANIUM_DB_USER"`
	Password string `envconfig:"ARCANIUM_DB_PASSWORD"`
	Name     string `envconfig:"ARCANIUM_DB_NAME"`
	SSLMode  string `envconfig:"ARCANIUM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ARCANIUM_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ARCANIUM_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ARCANIUM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARCANIUM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ARCANIUM_REDIS_URL"`
	Address      string        `envconfig:"ARCANIUM_REDIS_ADDR"`
	Password     string        `envconfig:"ARCANIUM_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARCANIUM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARCANIUM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARCANIUM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARCANIUM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARCANIUM_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"ARCANIUM_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CartConfig struct {
	Storage        string        `envconfig:"ARCANIUM_CART_STORAGE" default:"memory"`
	SessionTTL     time.Duration `envconfig:"ARCANIUM_CART_SESSION_TTL" default:"24h"`
	SweepInterval  time.Duration `envconfig:"ARCANIUM_CART_SWEEP_INTERVAL" default:"5m"`
	CookieName     string        `envconfig:"ARCANIUM_CART_COOKIE_NAME" default:"arcanium_cart"`
	CookieSecure   bool          `envconfig:"ARCANIUM_CART_COOKIE_SECURE" default:"false"`
	MutationLimit  int           `envconfig:"ARCANIUM_CART_MUTATION_LIMIT" default:"120"`
	MutationWindow time.Duration `envconfig:"ARCANIUM_CART_MUTATION_WINDOW" default:"1m"`
}

// StorageBackend returns the parsed storage backend, falling back to memory.
func (c CartConfig) StorageBackend() enums.CartStorage {
	backend, err := enums.ParseCartStorage(strings.ToLower(strings.TrimSpace(c.Storage)))
	if err != nil {
		return enums.CartStorageMemory
	}
	return backend
}

type CatalogConfig struct {
	Path string `envconfig:"ARCANIUM_CATALOG_PATH"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ARCANIUM_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ARCANIUM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ARCANIUM_AUTO_MIGRATE" default:"false"`
}

func (c *Config) validateStorage() error {
	raw := strings.ToLower(strings.TrimSpace(c.Cart.Storage))
	backend, err := enums.ParseCartStorage(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvCartStorage, err)
	}
	switch backend {
	case enums.CartStorageRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s=redis requires %s or %s", EnvCartStorage, EnvRedisURL, EnvRedisAddr)
		}
	case enums.CartStorageDB:
		if c.FeatureFlags.UseSQLite {
			if c.DB.DSN == "" {
				return fmt.Errorf("%s is required when %s is set", EnvDBDSN, EnvUseSQLite)
			}
			return nil
		}
		return c.DB.ensureDSN()
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
