package store

import (
	"context"
	"errors"
	"fmt"

	"go-jobwatch-automation/internal/config"
	"go-jobwatch-automation/internal/dedup"
)

// ErrPersistence marks an unreadable or corrupt seen-set. Load still returns
// a usable (empty) set alongside it, so the caller can fall back to seeding.
var ErrPersistence = errors.New("seen-set unreadable")

// SeenStore loads and saves the seen-set. Save is a full read-modify-write of
// the set; implementations never drop identifiers that are already stored.
// Load returns ErrPersistence only for stored data that cannot be decoded; an
// unreachable backend is a plain error.
type SeenStore interface {
	Load(ctx context.Context) (dedup.SeenSet, error)
	Save(ctx context.Context, seen dedup.SeenSet) error
	Close() error
}

// Open picks the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (SeenStore, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return ConnectPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
