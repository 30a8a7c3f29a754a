package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exampulse/exampulse-backend/internal/domain/errors"
	"github.com/exampulse/exampulse-backend/internal/domain/session"
)

// sessionRepository implements monitor.SessionRepository using PostgreSQL.
type sessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO exam_sessions (
			id, exam_id, user_id, status, risk_score, integrity_score,
			flagged_incidents, answers, time_taken_seconds,
			started_at, submitted_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.ExamID, s.UserID, s.Status.String(), s.RiskScore, s.IntegrityScore,
		s.FlaggedIncidents, s.Answers, s.TimeTakenSeconds,
		s.StartedAt, s.SubmittedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	query := `
		SELECT id, exam_id, user_id, status, risk_score, integrity_score,
		       flagged_incidents, answers, time_taken_seconds,
		       started_at, submitted_at, updated_at
		FROM exam_sessions
		WHERE id = $1
	`
	s, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *sessionRepository) Update(ctx context.Context, s *session.Session) error {
	query := `
		UPDATE exam_sessions
		SET status = $2, risk_score = $3, integrity_score = $4,
		    flagged_incidents = $5, answers = $6, time_taken_seconds = $7,
		    submitted_at = $8, updated_at = $9
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		s.ID, s.Status.String(), s.RiskScore, s.IntegrityScore,
		s.FlaggedIncidents, s.Answers, s.TimeTakenSeconds,
		s.SubmittedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]*session.Session, error) {
	query := `
		SELECT id, exam_id, user_id, status, risk_score, integrity_score,
		       flagged_incidents, answers, time_taken_seconds,
		       started_at, submitted_at, updated_at
		FROM exam_sessions
		WHERE exam_id = $1
		ORDER BY started_at DESC
	`
	rows, err := r.db.Query(ctx, query, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	var status string
	if err := row.Scan(
		&s.ID, &s.ExamID, &s.UserID, &status, &s.RiskScore, &s.IntegrityScore,
		&s.FlaggedIncidents, &s.Answers, &s.TimeTakenSeconds,
		&s.StartedAt, &s.SubmittedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = session.StatusFromString(status)
	return &s, nil
}
