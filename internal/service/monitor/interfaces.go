package monitor

import (
	"context"

	"github.com/google/uuid"

	"github.com/exampulse/exampulse-backend/internal/domain/alert"
	"github.com/exampulse/exampulse-backend/internal/domain/baseline"
	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
	"github.com/exampulse/exampulse-backend/internal/domain/session"
	"github.com/exampulse/exampulse-backend/internal/service/risk"
)

// SessionRepository stores exam sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *session.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error)
	Update(ctx context.Context, s *session.Session) error
	ListByExam(ctx context.Context, examID uuid.UUID) ([]*session.Session, error)
}

// EventRepository stores the per-session proctoring event log.
type EventRepository interface {
	Create(ctx context.Context, ev *event.Event) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*event.Event, error)
}

// AlertRepository stores high-risk alerts for proctor review.
type AlertRepository interface {
	Create(ctx context.Context, a *alert.Alert) error
	ListByExam(ctx context.Context, examID uuid.UUID, unresolvedOnly bool) ([]*alert.Alert, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

// BaselineRepository stores per-user behavioral baselines. MergeSample folds
// one session's features into the running baseline atomically; concurrent
// merges for the same user must serialize.
type BaselineRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*baseline.Baseline, error)
	MergeSample(ctx context.Context, userID uuid.UUID, features map[string]interface{}) (*baseline.Baseline, error)
}

// RiskEngine scores events and sessions.
type RiskEngine interface {
	ScoreEvent(ctx context.Context, in risk.EventInput) risk.Assessment
	ScoreSession(ctx context.Context, in risk.SessionInput) risk.Assessment
}

// FeatureExtractor turns a raw behavior sample into named features.
type FeatureExtractor interface {
	Extract(s behavior.Sample) map[string]float64
}

// Broadcaster pushes live updates to proctors watching an exam. Delivery is
// best effort; implementations must not block the caller.
type Broadcaster interface {
	BroadcastActivity(examID uuid.UUID, ev *event.Event, assessment risk.Assessment)
	BroadcastRiskUpdate(examID uuid.UUID, s *session.Session, assessment risk.Assessment)
	BroadcastAlert(examID uuid.UUID, a *alert.Alert)
}

// RiskCache holds the latest risk score per session for cheap dashboard reads.
type RiskCache interface {
	SetRisk(ctx context.Context, sessionID uuid.UUID, score float64) error
	GetRisk(ctx context.Context, sessionID uuid.UUID) (float64, bool, error)
}
