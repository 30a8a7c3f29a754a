package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exampulse/exampulse-backend/internal/domain/alert"
	"github.com/exampulse/exampulse-backend/internal/domain/errors"
)

// alertRepository implements monitor.AlertRepository using PostgreSQL.
type alertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) *alertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, a *alert.Alert) error {
	query := `
		INSERT INTO proctor_alerts (
			id, session_id, user_id, exam_id, alert_type,
			risk_score, severity, message, reasons, resolved, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := r.db.Exec(ctx, query,
		a.ID, a.SessionID, a.UserID, a.ExamID, a.AlertType,
		a.RiskScore, a.Severity, a.Message, a.Reasons, a.Resolved, a.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *alertRepository) ListByExam(ctx context.Context, examID uuid.UUID, unresolvedOnly bool) ([]*alert.Alert, error) {
	query := `
		SELECT id, session_id, user_id, exam_id, alert_type,
		       risk_score, severity, message, reasons, resolved, created_at
		FROM proctor_alerts
		WHERE exam_id = $1 AND ($2 = false OR resolved = false)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, examID, unresolvedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		var a alert.Alert
		if err := rows.Scan(
			&a.ID, &a.SessionID, &a.UserID, &a.ExamID, &a.AlertType,
			&a.RiskScore, &a.Severity, &a.Message, &a.Reasons, &a.Resolved, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

func (r *alertRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE proctor_alerts SET resolved = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("alert")
	}
	return nil
}
