package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/exampulse/exampulse-backend/internal/domain/errors"
)

type Status int

const (
	StatusInProgress Status = iota
	StatusSubmitted
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusSubmitted:
		return "submitted"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// StatusFromString maps a stored status string to its enum value.
func StatusFromString(s string) Status {
	switch s {
	case "submitted":
		return StatusSubmitted
	case "terminated":
		return StatusTerminated
	default:
		return StatusInProgress
	}
}

// Session is one student's run through one exam. Risk and integrity scores
// are updated by the monitoring pipeline on every scoring call.
type Session struct {
	ID     uuid.UUID `json:"id"`
	ExamID uuid.UUID `json:"exam_id"`
	UserID uuid.UUID `json:"user_id"`
	Status Status    `json:"status"`

	RiskScore        float64 `json:"risk_score"`
	IntegrityScore   float64 `json:"integrity_score"`
	FlaggedIncidents int     `json:"flagged_incidents_count"`

	Answers          json.RawMessage `json:"answers,omitempty"`
	TimeTakenSeconds *int            `json:"time_taken_seconds,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// New starts an in-progress session.
func New(examID, userID uuid.UUID) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:             uuid.New(),
		ExamID:         examID,
		UserID:         userID,
		Status:         StatusInProgress,
		IntegrityScore: 1.0,
		StartedAt:      now,
		UpdatedAt:      now,
	}
}

// RecordRisk applies a new risk score, keeping the integrity score as its
// complement.
func (s *Session) RecordRisk(score float64) {
	s.RiskScore = score
	s.IntegrityScore = 1.0 - score
	s.UpdatedAt = time.Now().UTC()
}

// FlagIncident increments the flagged incident counter.
func (s *Session) FlagIncident() {
	s.FlaggedIncidents++
	s.UpdatedAt = time.Now().UTC()
}

// Submit transitions the session to submitted. Submitting a session that is
// not in progress is a business error.
func (s *Session) Submit(answers json.RawMessage, timeTaken *int) error {
	if s.Status != StatusInProgress {
		return errors.ErrSessionClosed
	}
	now := time.Now().UTC()
	s.Status = StatusSubmitted
	s.Answers = answers
	s.TimeTakenSeconds = timeTaken
	s.SubmittedAt = &now
	s.UpdatedAt = now
	return nil
}
