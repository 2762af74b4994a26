package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/sqliteschema"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date in dev when AutoMigrate is on.
// Local sqlite databases always get their schema and a demo catalog since
// nothing else creates them.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.DB.IsSQLite() {
		ctx = logg.WithField(ctx, "dsn", cfg.DB.DSN)
		if err := sqliteschema.Apply(ctx, client.DB()); err != nil {
			return fmt.Errorf("applying sqlite schema: %w", err)
		}
		if err := sqliteschema.SeedDemoCatalog(ctx, client.DB()); err != nil {
			return fmt.Errorf("seeding sqlite catalog: %w", err)
		}
		logg.Info(ctx, "sqlite schema applied")
		return nil
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": EmbeddedDir})
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := runFS(ctx, Embedded(), sqlDB, EmbeddedDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
