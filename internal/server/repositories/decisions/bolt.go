package decisions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
	"go.etcd.io/bbolt"
)

// Bucket names; created by the bolt repository manager.
const (
	// BucketDecisions holds one nested bucket per user, keyed by decision id.
	BucketDecisions = "decisions"
	// BucketOwners maps decision id to owning user id.
	BucketOwners = "decision_owner"
)

// BoltRepository implements decision storage over bbolt. Each mutation runs
// in a single read-write transaction.
type BoltRepository struct {
	db *bbolt.DB
}

func NewBoltRepository(db *bbolt.DB) *BoltRepository {
	return &BoltRepository{db: db}
}

type boltDecision struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
}

var errBucketsMissing = errors.New("decisions buckets are missing")

func (r *BoltRepository) ListByUser(ctx context.Context, userID string) ([]*models.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]*models.Decision, 0)
	err := r.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(BucketDecisions))
		if root == nil {
			return errBucketsMissing
		}
		b := root.Bucket([]byte(userID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			d, err := decodeDecision(v)
			if err != nil {
				return err
			}
			result = append(result, d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

func (r *BoltRepository) Create(ctx context.Context, decision *models.Decision) (*models.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(boltDecision(*decision))
	if err != nil {
		return nil, fmt.Errorf("marshal decision: %w", err)
	}

	err = r.db.Update(func(tx *bbolt.Tx) error {
		root, owners := tx.Bucket([]byte(BucketDecisions)), tx.Bucket([]byte(BucketOwners))
		if root == nil || owners == nil {
			return errBucketsMissing
		}
		if owners.Get([]byte(decision.ID)) != nil {
			return fmt.Errorf("decision id %q already exists", decision.ID)
		}
		b, err := root.CreateBucketIfNotExists([]byte(decision.UserID))
		if err != nil {
			return err
		}
		if err := b.Put([]byte(decision.ID), payload); err != nil {
			return err
		}
		return owners.Put([]byte(decision.ID), []byte(decision.UserID))
	})
	if err != nil {
		return nil, err
	}

	return decision, nil
}

func (r *BoltRepository) Get(ctx context.Context, userID, id string) (*models.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var d *models.Decision
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := userBucket(tx, userID)
		if err != nil {
			return err
		}
		d, err = decodeDecision(b.Get([]byte(id)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *BoltRepository) Update(ctx context.Context, userID, id string, patch models.DecisionPatch) (*models.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *models.Decision
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := userBucket(tx, userID)
		if err != nil {
			return err
		}
		current, err := decodeDecision(b.Get([]byte(id)))
		if err != nil {
			return err
		}

		next := patch.Apply(*current)
		payload, err := json.Marshal(boltDecision(next))
		if err != nil {
			return fmt.Errorf("marshal decision: %w", err)
		}
		if err := b.Put([]byte(id), payload); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *BoltRepository) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := userBucket(tx, userID)
		if err != nil {
			return err
		}
		if b.Get([]byte(id)) == nil {
			return common.ErrNotFound
		}
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket([]byte(BucketOwners)).Delete([]byte(id))
	})
}

// userBucket returns the user's nested bucket, or common.ErrNotFound when the
// user has never stored a decision.
func userBucket(tx *bbolt.Tx, userID string) (*bbolt.Bucket, error) {
	root, owners := tx.Bucket([]byte(BucketDecisions)), tx.Bucket([]byte(BucketOwners))
	if root == nil || owners == nil {
		return nil, errBucketsMissing
	}
	b := root.Bucket([]byte(userID))
	if b == nil {
		return nil, common.ErrNotFound
	}
	return b, nil
}

func decodeDecision(payload []byte) (*models.Decision, error) {
	if payload == nil {
		return nil, common.ErrNotFound
	}
	var d boltDecision
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("unmarshal decision: %w", err)
	}
	decision := models.Decision(d)
	return &decision, nil
}
