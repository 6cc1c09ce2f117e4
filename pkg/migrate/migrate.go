package migrate

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

const embeddedDir = "migrations"

// goose keeps dialect and base FS in package globals
var gooseMu sync.Mutex

// Run executes a goose command against the embedded state-store migrations.
func Run(ctx context.Context, client *db.Client, command string, args ...string) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(client.Dialect()); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, sqlDB, embeddedDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, client *db.Client) error {
	return Run(ctx, client, "up")
}

// MaybeAutoRun applies migrations when the store is configured to do so.
func MaybeAutoRun(ctx context.Context, cfg config.StoreConfig, logg *logger.Logger, client *db.Client) error {
	if !cfg.AutoMigrate {
		return nil
	}
	if logg != nil {
		logg.Debug(logg.WithField(ctx, "driver", cfg.Driver), "applying state store migrations")
	}
	if err := Up(ctx, client); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	return nil
}
