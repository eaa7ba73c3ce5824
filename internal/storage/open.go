// Package storage selects and opens the claim store named by STORE_DRIVER.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/claims/internal/config"
	"github.com/JonMunkholm/claims/internal/core"
	"github.com/JonMunkholm/claims/internal/database"
	"github.com/JonMunkholm/claims/internal/memstore"
)

// Open returns the configured store and a function releasing it. For
// PostgreSQL the schema is applied first when cfg.Migrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Info("using in-memory claim store")
		return memstore.New(), func() {}, nil

	case config.DriverPostgres:
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Migrate {
			if err := database.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			slog.Info("database schema applied")
		}
		store := database.New(pool)
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
