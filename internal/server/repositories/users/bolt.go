package users

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
	"go.etcd.io/bbolt"
)

// Bucket names; created by the bolt repository manager.
const (
	BucketUsers      = "users"
	BucketUsersEmail = "users_by_email"
)

// BoltRepository implements Repository over bbolt. Users are JSON values keyed
// by id; a second bucket maps email to id. Both are written in one
// transaction, which is also where uniqueness is checked.
type BoltRepository struct {
	db *bbolt.DB
}

func NewBoltRepository(db *bbolt.DB) *BoltRepository {
	return &BoltRepository{db: db}
}

type boltUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *BoltRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(boltUser(*user))
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	err = r.db.Update(func(tx *bbolt.Tx) error {
		byID, byEmail, err := userBuckets(tx)
		if err != nil {
			return err
		}
		if byEmail.Get([]byte(user.Email)) != nil {
			return common.ErrEmailTaken
		}
		if byID.Get([]byte(user.ID)) != nil {
			return fmt.Errorf("user id %q already exists", user.ID)
		}
		if err := byID.Put([]byte(user.ID), payload); err != nil {
			return err
		}
		return byEmail.Put([]byte(user.Email), []byte(user.ID))
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *BoltRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *models.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		byID, byEmail, err := userBuckets(tx)
		if err != nil {
			return err
		}
		id := byEmail.Get([]byte(email))
		if id == nil {
			return common.ErrNotFound
		}
		user, err = decodeUser(byID.Get(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *BoltRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *models.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		byID, _, err := userBuckets(tx)
		if err != nil {
			return err
		}
		user, err = decodeUser(byID.Get([]byte(id)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func userBuckets(tx *bbolt.Tx) (*bbolt.Bucket, *bbolt.Bucket, error) {
	byID := tx.Bucket([]byte(BucketUsers))
	byEmail := tx.Bucket([]byte(BucketUsersEmail))
	if byID == nil || byEmail == nil {
		return nil, nil, fmt.Errorf("users buckets are missing")
	}
	return byID, byEmail, nil
}

func decodeUser(payload []byte) (*models.User, error) {
	if payload == nil {
		return nil, common.ErrNotFound
	}
	var u boltUser
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	user := models.User(u)
	return &user, nil
}
