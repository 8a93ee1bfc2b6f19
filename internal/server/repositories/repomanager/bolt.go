package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/filex"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/decisions"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/users"
	"go.etcd.io/bbolt"
)

// BoltRepositoryManager vends repositories over an embedded bbolt file.
type BoltRepositoryManager struct {
	db *bbolt.DB
}

var boltBuckets = []string{
	users.BucketUsers,
	users.BucketUsersEmail,
	decisions.BucketDecisions,
	decisions.BucketOwners,
}

// OpenBolt opens the bbolt file at path. bbolt holds an exclusive file lock,
// so a second process gives up after one second.
func OpenBolt(path string) (*BoltRepositoryManager, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	return &BoltRepositoryManager{db: db}, nil
}

func (m *BoltRepositoryManager) Users() users.Repository {
	return users.NewBoltRepository(m.db)
}

func (m *BoltRepositoryManager) Decisions() decisions.Repository {
	return decisions.NewBoltRepository(m.db)
}

// RunMigrations creates the top-level buckets.
func (m *BoltRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range boltBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (m *BoltRepositoryManager) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.View(func(*bbolt.Tx) error { return nil })
}

func (m *BoltRepositoryManager) Close() error {
	return m.db.Close()
}
