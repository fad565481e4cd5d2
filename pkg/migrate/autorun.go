package migrate

import (
	"context"
	"fmt"

	"github.com/arcanium-studios/arcanium-backend/pkg/config"
	"github.com/arcanium-studios/arcanium-backend/pkg/db"
	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
)

// MaybeRunDev applies the embedded cart migrations when running in dev with
// ARCANIUM_AUTO_MIGRATE set. Other environments migrate through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, client.Dialect(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	version, err := CurrentVersion(ctx, sqlDB, client.Dialect())
	if err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "version", version), "goose migrations completed")
	return nil
}
