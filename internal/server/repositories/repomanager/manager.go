// Package repomanager opens the configured storage engine and vends the
// repositories bound to it, together with schema migration and lifecycle
// hooks.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/decisionkeeper/internal/server/config"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/decisions"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	// RunMigrations brings the schema up to date. It is idempotent.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Decisions() decisions.Repository
	Ping(ctx context.Context) error
	Close() error
}

// New opens the storage engine selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseDSN)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.StoragePath)
	case config.DriverBolt:
		return OpenBolt(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// gooseUp is a seam for testing goose migrations.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
