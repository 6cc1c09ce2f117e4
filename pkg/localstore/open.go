package localstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/migrate"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

// Open builds the store selected by cfg.Store.Driver. The returned close
// func releases any underlying connection.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Store.Driver) {
	case config.StoreDriverMemory:
		return NewMemory(), noop, nil

	case config.StoreDriverRedis:
		client, err := pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, noop, fmt.Errorf("open redis store: %w", err)
		}
		return NewRedisStore(client), client.Close, nil

	case config.StoreDriverSQLite, config.StoreDriverPostgres, "":
		client, err := db.New(ctx, cfg.Store, logg)
		if err != nil {
			return nil, noop, fmt.Errorf("open sql store: %w", err)
		}
		if err := migrate.MaybeAutoRun(ctx, cfg.Store, logg, client); err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return NewGormStore(client.DB()), client.Close, nil
	}
	return nil, noop, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}
