package store

import (
	"context"
	"fmt"

	"fieldsync/internal/canvass/store/memory"
	"fieldsync/internal/canvass/store/sqlstore"
	"fieldsync/internal/platform/config"
)

// Open returns the engine selected by cfg.Driver with its schema applied.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewInMemory(), nil
	case config.DriverSQLite:
		return sqlstore.OpenSQLite(ctx, cfg.DSN)
	case config.DriverPostgres:
		return sqlstore.OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
