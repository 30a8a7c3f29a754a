package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exampulse/exampulse-backend/internal/domain/baseline"
	"github.com/exampulse/exampulse-backend/internal/domain/errors"
)

// baselineRepository implements monitor.BaselineRepository using PostgreSQL.
// Features are stored as JSONB keyed by feature name.
type baselineRepository struct {
	db *pgxpool.Pool
}

func NewBaselineRepository(db *pgxpool.Pool) *baselineRepository {
	return &baselineRepository{db: db}
}

func (r *baselineRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*baseline.Baseline, error) {
	query := `
		SELECT id, user_id, features, sample_count, created_at, updated_at
		FROM user_baselines
		WHERE user_id = $1
	`
	b, err := scanBaseline(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrBaselineNotFound
		}
		return nil, fmt.Errorf("failed to get baseline: %w", err)
	}
	return b, nil
}

// MergeSample folds one session's features into the user's running baseline.
// The row is locked for the duration of the merge so concurrent submissions
// for the same user serialize instead of losing updates.
func (r *baselineRepository) MergeSample(ctx context.Context, userID uuid.UUID, features map[string]interface{}) (*baseline.Baseline, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin baseline merge: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, user_id, features, sample_count, created_at, updated_at
		FROM user_baselines
		WHERE user_id = $1
		FOR UPDATE
	`
	existing, err := scanBaseline(tx.QueryRow(ctx, query, userID))
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to lock baseline: %w", err)
	}

	var merged *baseline.Baseline
	if existing == nil {
		merged = baseline.New(userID, features)
		insert := `
			INSERT INTO user_baselines (id, user_id, features, sample_count, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.Exec(ctx, insert,
			merged.ID, merged.UserID, merged.Features, merged.SampleCount,
			merged.CreatedAt, merged.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to insert baseline: %w", err)
		}
	} else {
		existing.Fold(features)
		existing.UpdatedAt = time.Now().UTC()
		merged = existing
		update := `
			UPDATE user_baselines
			SET features = $2, sample_count = $3, updated_at = $4
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, update,
			merged.ID, merged.Features, merged.SampleCount, merged.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to update baseline: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit baseline merge: %w", err)
	}
	return merged, nil
}

func scanBaseline(row pgx.Row) (*baseline.Baseline, error) {
	var b baseline.Baseline
	if err := row.Scan(&b.ID, &b.UserID, &b.Features, &b.SampleCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
