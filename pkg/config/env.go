package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "ARCANIUM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "ARCANIUM_APP_ENV"
	EnvPort        = "ARCANIUM_APP_PORT"
	EnvLogLevel    = "ARCANIUM_LOG_LEVEL"
	EnvLogFormat   = "ARCANIUM_LOG_FORMAT"
	EnvDBDSN       = "ARCANIUM_DB_DSN"
	EnvDBHost      = "ARCANIUM_DB_HOST"
	EnvDBUser      = "ARCANIUM_DB_USER"
	EnvDBName      = "ARCANIUM_DB_NAME"
	EnvDBPassword  = "ARCANIUM_DB_PASSWORD"
	EnvRedisURL    = "ARCANIUM_REDIS_URL"
	EnvRedisAddr   = "ARCANIUM_REDIS_ADDR"
	EnvCartStorage = "ARCANIUM_CART_STORAGE"
	EnvCartTTL     = "ARCANIUM_CART_SESSION_TTL"
	EnvCatalogPath = "ARCANIUM_CATALOG_PATH"
	EnvCORSOrigins = "ARCANIUM_CORS_ALLOWED_ORIGINS"
	EnvUseSQLite   = "ARCANIUM_USE_SQLITE"
	EnvAutoMigrate = "ARCANIUM_AUTO_MIGRATE"
)

var dbEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
