// Package users stores user credentials. Every engine enforces email
// uniqueness atomically and reports a duplicate as common.ErrEmailTaken.
package users

import (
	"context"

	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
)

type Repository interface {
	// Create persists user. user.ID and user.CreatedAt are set by the caller.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail returns common.ErrNotFound when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
