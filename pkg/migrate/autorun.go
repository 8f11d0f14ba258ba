package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

// MaybeAutoRun brings the terminal_state schema up to date at boot. It is a
// no-op for the redis driver or when POS_STORAGE_AUTO_MIGRATE is off.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || cfg == nil || !cfg.Storage.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("state store handle: %w", err)
	}
	dialect := client.Dialect()
	if err := prepare(dialect); err != nil {
		return err
	}

	// A fresh database has no goose table yet; treat that as version 0.
	before, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		before = 0
	}
	if err := Up(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("migrating terminal state: %w", err)
	}
	after, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"dialect":     dialect,
			"version_was": before,
			"version":     after,
		})
		if after == before {
			logg.Debug(ctx, "migrate.up_to_date")
		} else {
			logg.Info(ctx, "migrate.applied")
		}
	}
	return nil
}
