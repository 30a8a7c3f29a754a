package monitor

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/exampulse/exampulse-backend/internal/domain/alert"
	"github.com/exampulse/exampulse-backend/internal/domain/baseline"
	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
	"github.com/exampulse/exampulse-backend/internal/domain/session"
	"github.com/exampulse/exampulse-backend/internal/service/risk"
)

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx context.Context, s *session.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *mockSessionRepo) Update(ctx context.Context, s *session.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionRepo) ListByExam(ctx context.Context, examID uuid.UUID) ([]*session.Session, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

type mockEventRepo struct{ mock.Mock }

func (m *mockEventRepo) Create(ctx context.Context, ev *event.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockEventRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*event.Event, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

type mockAlertRepo struct{ mock.Mock }

func (m *mockAlertRepo) Create(ctx context.Context, a *alert.Alert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAlertRepo) ListByExam(ctx context.Context, examID uuid.UUID, unresolvedOnly bool) ([]*alert.Alert, error) {
	args := m.Called(ctx, examID, unresolvedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alert.Alert), args.Error(1)
}

func (m *mockAlertRepo) Resolve(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockBaselineRepo struct{ mock.Mock }

func (m *mockBaselineRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*baseline.Baseline, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*baseline.Baseline), args.Error(1)
}

func (m *mockBaselineRepo) MergeSample(ctx context.Context, userID uuid.UUID, features map[string]interface{}) (*baseline.Baseline, error) {
	args := m.Called(ctx, userID, features)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*baseline.Baseline), args.Error(1)
}

type mockEngine struct{ mock.Mock }

func (m *mockEngine) ScoreEvent(ctx context.Context, in risk.EventInput) risk.Assessment {
	return m.Called(ctx, in).Get(0).(risk.Assessment)
}

func (m *mockEngine) ScoreSession(ctx context.Context, in risk.SessionInput) risk.Assessment {
	return m.Called(ctx, in).Get(0).(risk.Assessment)
}

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) Extract(s behavior.Sample) map[string]float64 {
	return m.Called(s).Get(0).(map[string]float64)
}

type mockBroadcaster struct{ mock.Mock }

func (m *mockBroadcaster) BroadcastActivity(examID uuid.UUID, ev *event.Event, assessment risk.Assessment) {
	m.Called(examID, ev, assessment)
}

func (m *mockBroadcaster) BroadcastRiskUpdate(examID uuid.UUID, s *session.Session, assessment risk.Assessment) {
	m.Called(examID, s, assessment)
}

func (m *mockBroadcaster) BroadcastAlert(examID uuid.UUID, a *alert.Alert) {
	m.Called(examID, a)
}

type mockRiskCache struct{ mock.Mock }

func (m *mockRiskCache) SetRisk(ctx context.Context, sessionID uuid.UUID, score float64) error {
	return m.Called(ctx, sessionID, score).Error(0)
}

func (m *mockRiskCache) GetRisk(ctx context.Context, sessionID uuid.UUID) (float64, bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}
