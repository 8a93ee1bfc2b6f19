package decisions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/dbx"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
)

// SQLiteRepository implements decision storage over SQLite. created_at is
// stored as Unix milliseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]*models.Decision, error) {
	query := `SELECT id, user_id, title, description, category, created_at FROM decisions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select decisions: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Decision, 0)
	for rows.Next() {
		var (
			item      models.Decision
			createdAt int64
		)
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &item.Category, &createdAt); err != nil {
			return nil, err
		}
		item.CreatedAt = time.UnixMilli(createdAt).UTC()
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, decision *models.Decision) (*models.Decision, error) {
	query := `INSERT INTO decisions (id, user_id, title, description, category, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		decision.ID, decision.UserID, decision.Title, decision.Description, string(decision.Category),
		decision.CreatedAt.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return decision, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userID, id string) (*models.Decision, error) {
	query := `SELECT id, user_id, title, description, category, created_at FROM decisions WHERE id = ? AND user_id = ?`
	return scanSQLiteDecision(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *SQLiteRepository) Update(ctx context.Context, userID, id string, patch models.DecisionPatch) (*models.Decision, error) {
	query := `UPDATE decisions SET
			title = COALESCE(?, title),
			description = COALESCE(?, description),
			category = COALESCE(?, category)
		WHERE id = ? AND user_id = ?
		RETURNING id, user_id, title, description, category, created_at`

	title, description, category := patchArgs(patch)

	return scanSQLiteDecision(r.db.QueryRowContext(ctx, query, title, description, category, id, userID))
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM decisions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func scanSQLiteDecision(row *sql.Row) (*models.Decision, error) {
	var (
		d         models.Decision
		createdAt int64
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Description, &d.Category, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &d, nil
}
