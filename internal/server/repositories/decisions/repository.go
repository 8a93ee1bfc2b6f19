// Package decisions stores decision records. Every read and write is scoped
// by the owning user id; a record owned by someone else behaves exactly like
// a missing one and yields common.ErrNotFound.
package decisions

import (
	"context"

	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
)

type Repository interface {
	// ListByUser returns the user's decisions, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Decision, error)
	Create(ctx context.Context, decision *models.Decision) (*models.Decision, error)
	Get(ctx context.Context, userID, id string) (*models.Decision, error)
	// Update applies patch in a single atomic step and returns the stored result.
	Update(ctx context.Context, userID, id string, patch models.DecisionPatch) (*models.Decision, error)
	Delete(ctx context.Context, userID, id string) error
}
