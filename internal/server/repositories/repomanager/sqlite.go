package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/decisionkeeper/internal/filex"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/decisions"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// SQLiteRepositoryManager vends repositories over a single SQLite file.
type SQLiteRepositoryManager struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path. The
// parent directory is created as well.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepositoryManager, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteRepositoryManager{db: db}, nil
}

func (m *SQLiteRepositoryManager) Users() users.Repository {
	return users.NewSQLiteRepository(m.db)
}

func (m *SQLiteRepositoryManager) Decisions() decisions.Repository {
	return decisions.NewSQLiteRepository(m.db)
}

// RunMigrations applies the embedded SQLite migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	return gooseUp(ctx, goose.DialectSQLite3, m.db, migrations.SQLite())
}

func (m *SQLiteRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *SQLiteRepositoryManager) Close() error {
	return m.db.Close()
}
