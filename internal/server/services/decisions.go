package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/validation"
	"github.com/google/uuid"
)

type CreateDecisionInput struct {
	Title       string          `json:"title" validate:"required,max=100"`
	Description *string         `json:"description"`
	Category    models.Category `json:"category" validate:"required,category"`
}

// UpdateDecisionInput is a partial update; absent fields stay unchanged.
type UpdateDecisionInput struct {
	Title       *string          `json:"title" validate:"omitnil,min=1,max=100"`
	Description *string          `json:"description"`
	Category    *models.Category `json:"category" validate:"omitnil,category"`
}

var decisionMessages = validation.Messages{
	"title.required":    "Title is required",
	"title.min":         "Title is required",
	"title.max":         "Title is too long",
	"category.required": "Invalid category",
	"category.category": "Invalid category",
}

// DecisionService exposes decision CRUD. Every call is scoped by the
// caller's user id; records of other users look exactly like missing ones.
type DecisionService struct {
	repomanager repomanager.RepositoryManager
	validator   *validation.Validator
	now         func() time.Time
}

func NewDecisionService(m repomanager.RepositoryManager, v *validation.Validator) *DecisionService {
	return &DecisionService{repomanager: m, validator: v, now: time.Now}
}

func (s *DecisionService) List(ctx context.Context, userID string) ([]*models.Decision, error) {
	items, err := s.repomanager.Decisions().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing decisions: %w", err)
	}
	return items, nil
}

func (s *DecisionService) Create(ctx context.Context, userID string, in CreateDecisionInput) (*models.Decision, error) {
	if err := s.validator.Struct(in, decisionMessages); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("error generating id: %w", err)
	}

	d := &models.Decision{
		ID:        id.String(),
		UserID:    userID,
		Title:     in.Title,
		Category:  in.Category,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if in.Description != nil {
		d.Description = *in.Description
	}

	created, err := s.repomanager.Decisions().Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("error creating decision: %w", err)
	}
	return created, nil
}

func (s *DecisionService) Get(ctx context.Context, userID, id string) (*models.Decision, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return passNotFound(s.repomanager.Decisions().Get(ctx, userID, id))
}

// Update applies in to the decision. An empty update returns the record as
// stored.
func (s *DecisionService) Update(ctx context.Context, userID, id string, in UpdateDecisionInput) (*models.Decision, error) {
	if err := s.validator.Struct(in, decisionMessages); err != nil {
		return nil, err
	}
	id, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}

	patch := models.DecisionPatch{Title: in.Title, Description: in.Description, Category: in.Category}
	if patch.Empty() {
		return passNotFound(s.repomanager.Decisions().Get(ctx, userID, id))
	}

	return passNotFound(s.repomanager.Decisions().Update(ctx, userID, id, patch))
}

func (s *DecisionService) Delete(ctx context.Context, userID, id string) error {
	id, ok := parseID(id)
	if !ok {
		return common.ErrNotFound
	}
	err := s.repomanager.Decisions().Delete(ctx, userID, id)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("error deleting decision: %w", err)
	}
	return err
}

// parseID returns id in canonical form, or false when it cannot name a
// stored decision.
func parseID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func passNotFound(d *models.Decision, err error) (*models.Decision, error) {
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, err
}
