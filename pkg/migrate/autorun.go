package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/db"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"gorm.io/gorm"
)

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled. SQLite databases are migrated from the gorm models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.DB.Driver == config.DriverSQLite {
		ctx = logg.WithField(ctx, "driver", cfg.DB.Driver)
		logg.Info(ctx, "auto-migrating sqlite schema")
		return AutoMigrateModels(client.DB())
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	runner, err := NewRunner(sqlDB, DefaultDir)
	if err != nil {
		return err
	}
	results, err := runner.Up(ctx)
	if err != nil {
		return err
	}

	logg.Info(logg.WithField(ctx, "applied", len(results)), "Goose migrations completed")
	return nil
}

// AutoMigrateModels creates every table from the gorm models.
func AutoMigrateModels(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	return nil
}
