package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/arcanium-studios/arcanium-backend/api/routes"
	"github.com/arcanium-studios/arcanium-backend/internal/cart"
	"github.com/arcanium-studios/arcanium-backend/internal/catalog"
	"github.com/arcanium-studios/arcanium-backend/pkg/config"
	"github.com/arcanium-studios/arcanium-backend/pkg/db"
	"github.com/arcanium-studios/arcanium-backend/pkg/enums"
	"github.com/arcanium-studios/arcanium-backend/pkg/env"
	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
	"github.com/arcanium-studios/arcanium-backend/pkg/metrics"
	"github.com/arcanium-studios/arcanium-backend/pkg/migrate"
	"github.com/arcanium-studios/arcanium-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Instance:    env.InstanceID(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	products, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var (
		dbClient    *db.Client
		dbPinger    db.Pinger
		redisClient *redis.Client
		repo        cart.Repository
	)

	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
	}

	switch cfg.Cart.StorageBackend() {
	case enums.CartStorageRedis:
		repo, err = cart.NewRedisRepository(redisClient, cfg.Cart.SessionTTL)
		if err != nil {
			return err
		}
	case enums.CartStorageDB:
		dbClient, err = db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			return err
		}
		closers = append(closers, dbClient.Close)
		dbPinger = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		repo, err = cart.NewDBRepository(dbClient)
		if err != nil {
			return err
		}
	}

	cartService, err := cart.NewService(products, cart.ServiceConfig{
		Repository: repo,
		SessionTTL: cfg.Cart.SessionTTL,
		Metrics:    metrics.NewCartMetrics(reg),
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	port := env.Get("PORT", cfg.App.Port)
	addr := ":" + port
	logCtx := logg.WithFields(context.Background(), map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"cart_storage": cfg.Cart.StorageBackend().String(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, reg, dbPinger, redisClient, products, cartService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go runJanitor(ctx, logg, cartService, cfg.Cart.SweepInterval)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runJanitor evicts idle carts until ctx is cancelled.
func runJanitor(ctx context.Context, logg *logger.Logger, svc cart.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := svc.Sweep(ctx, now); evicted > 0 {
				logg.Debug(logg.WithField(ctx, "evicted", evicted), "cart.janitor_sweep")
			}
		}
	}
}
