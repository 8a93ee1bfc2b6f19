package decisions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/dbx"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
)

// PostgresRepository implements decision storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByUser returns all decisions of userID ordered by created_at, newest
// first; ties are broken by id.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Decision, error) {
	query := `SELECT id, user_id, title, description, category, created_at FROM decisions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select decisions: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Decision, 0)
	for rows.Next() {
		var item models.Decision
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &item.Category, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, decision *models.Decision) (*models.Decision, error) {
	query :=
		`INSERT INTO decisions (id, user_id, title, description, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		`

	_, err := r.db.ExecContext(ctx, query,
		decision.ID, decision.UserID, decision.Title, decision.Description, string(decision.Category), decision.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return decision, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Decision, error) {
	query := `SELECT id, user_id, title, description, category, created_at FROM decisions
		WHERE id = $1 AND user_id = $2
		`
	return scanDecision(r.db.QueryRowContext(ctx, query, id, userID))
}

// Update rewrites only the fields present in patch. The ownership check and
// the write happen in one statement.
func (r *PostgresRepository) Update(ctx context.Context, userID, id string, patch models.DecisionPatch) (*models.Decision, error) {
	query := `UPDATE decisions SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			category = COALESCE($5, category)
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, description, category, created_at
		`
	title, description, category := patchArgs(patch)

	return scanDecision(r.db.QueryRowContext(ctx, query, id, userID, title, description, category))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM decisions WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func scanDecision(row *sql.Row) (*models.Decision, error) {
	var d models.Decision
	if err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Description, &d.Category, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &d, nil
}

// patchArgs converts patch to nullable statement arguments; NULL keeps the
// stored column through COALESCE.
func patchArgs(patch models.DecisionPatch) (title, description, category sql.NullString) {
	if patch.Title != nil {
		title = sql.NullString{String: *patch.Title, Valid: true}
	}
	if patch.Description != nil {
		description = sql.NullString{String: *patch.Description, Valid: true}
	}
	if patch.Category != nil {
		category = sql.NullString{String: string(*patch.Category), Valid: true}
	}
	return title, description, category
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
