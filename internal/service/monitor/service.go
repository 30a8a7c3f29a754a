package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/exampulse/exampulse-backend/internal/domain/alert"
	"github.com/exampulse/exampulse-backend/internal/domain/baseline"
	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/errors"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
	"github.com/exampulse/exampulse-backend/internal/domain/session"
	"github.com/exampulse/exampulse-backend/internal/metrics"
	"github.com/exampulse/exampulse-backend/internal/service/risk"
)

// Service orchestrates live exam monitoring: it persists incoming events,
// scores them, maintains session risk state, raises alerts, and folds
// submitted sessions into the user's behavioral baseline.
type Service struct {
	sessions  SessionRepository
	events    EventRepository
	alerts    AlertRepository
	baselines BaselineRepository
	engine    RiskEngine
	extractor FeatureExtractor
	broadcast Broadcaster
	cache     RiskCache
	logger    *zap.Logger
}

func NewService(
	sessions SessionRepository,
	events EventRepository,
	alerts AlertRepository,
	baselines BaselineRepository,
	engine RiskEngine,
	extractor FeatureExtractor,
	broadcast Broadcaster,
	cache RiskCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		sessions:  sessions,
		events:    events,
		alerts:    alerts,
		baselines: baselines,
		engine:    engine,
		extractor: extractor,
		broadcast: broadcast,
		cache:     cache,
		logger:    logger,
	}
}

// StartSession opens a new in-progress session for a user taking an exam.
func (s *Service) StartSession(ctx context.Context, examID, userID uuid.UUID) (*session.Session, error) {
	sess := session.New(examID, userID)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, errors.NewInternalError("failed to create session").WithCause(err)
	}
	s.logger.Info("session started",
		zap.String("session_id", sess.ID.String()),
		zap.String("exam_id", examID.String()),
		zap.String("user_id", userID.String()))
	return sess, nil
}

// GetSession returns a session by ID.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	return s.sessions.GetByID(ctx, id)
}

// ListSessions returns all sessions for an exam.
func (s *Service) ListSessions(ctx context.Context, examID uuid.UUID) ([]*session.Session, error) {
	return s.sessions.ListByExam(ctx, examID)
}

// RecordActivity ingests one proctoring event: it validates and persists the
// event, scores it against the user's baseline, updates the session's risk
// state, and raises an alert when the assessment crosses the alert threshold.
// A degraded scoring run still records the event; scoring failures never
// reject the activity itself.
func (s *Service) RecordActivity(ctx context.Context, in ActivityInput) (*ActivityResult, error) {
	sess, err := s.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusInProgress {
		return nil, errors.NewBusinessError("SESSION_CLOSED", "session is not accepting activity").
			WithDetails(map[string]interface{}{
				"session_id": sess.ID.String(),
				"status":     sess.Status.String(),
			})
	}

	payload, err := event.ParsePayload(in.EventType, in.Payload)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_PAYLOAD", err.Error())
	}

	ev := event.New(sess.ID, payload)
	ev.Severity = event.DeriveSeverity(payload)
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, errors.NewInternalError("failed to store event").WithCause(err)
	}

	history, err := s.events.ListBySession(ctx, sess.ID)
	if err != nil {
		s.logger.Warn("event history unavailable, scoring with current event only",
			zap.String("session_id", sess.ID.String()), zap.Error(err))
		history = []*event.Event{ev}
	}

	base := s.loadBaseline(ctx, sess.UserID)

	started := time.Now()
	assessment := s.engine.ScoreEvent(ctx, risk.EventInput{
		Payload:  payload,
		Behavior: in.Behavior,
		Baseline: base,
		Events:   history,
	})
	metrics.ObserveScoring("event", string(assessment.Level), time.Since(started))

	s.applyAssessment(ctx, sess, assessment)
	if ev.Severity == event.SeverityHigh {
		sess.FlagIncident()
	}
	// Flag before the session write so the stored incident count matches
	// every alert the proctor sees.
	if assessment.ShouldAlert() {
		sess.FlagIncident()
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		s.logger.Error("failed to persist session risk state",
			zap.String("session_id", sess.ID.String()), zap.Error(err))
	}

	s.raiseAlertIfNeeded(ctx, sess, assessment)
	s.broadcast.BroadcastActivity(sess.ExamID, ev, assessment)
	s.broadcast.BroadcastRiskUpdate(sess.ExamID, sess, assessment)

	return &ActivityResult{Event: ev, Assessment: assessment}, nil
}

// SubmitSession finalizes a session: it stores the answers, extracts the
// full behavioral feature set from the captured telemetry, scores the whole
// session, and folds the features into the user's baseline so the next exam
// starts from an updated profile.
func (s *Service) SubmitSession(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	sess, err := s.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if err := in.Sample.Validate(); err != nil {
		return nil, errors.NewValidationError("INVALID_SAMPLE", err.Error())
	}

	features := s.extractor.Extract(in.Sample)

	history, err := s.events.ListBySession(ctx, sess.ID)
	if err != nil {
		s.logger.Warn("event history unavailable for final scoring",
			zap.String("session_id", sess.ID.String()), zap.Error(err))
		history = nil
	}

	base := s.loadBaseline(ctx, sess.UserID)

	started := time.Now()
	assessment := s.engine.ScoreSession(ctx, risk.SessionInput{
		Behavior: summaryFromFeatures(features),
		Baseline: base,
		Events:   history,
	})
	metrics.ObserveScoring("session", string(assessment.Level), time.Since(started))

	if err := sess.Submit(in.Answers, &in.TimeTakenSeconds); err != nil {
		return nil, err
	}
	s.applyAssessment(ctx, sess, assessment)
	if assessment.ShouldAlert() {
		sess.FlagIncident()
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, errors.NewInternalError("failed to finalize session").WithCause(err)
	}

	s.raiseAlertIfNeeded(ctx, sess, assessment)
	s.broadcast.BroadcastRiskUpdate(sess.ExamID, sess, assessment)

	// Degraded runs must not pollute the baseline with features that were
	// never scored against it.
	if !assessment.Degraded {
		if _, err := s.baselines.MergeSample(ctx, sess.UserID, toBaselineFeatures(features)); err != nil {
			s.logger.Error("failed to merge baseline sample",
				zap.String("user_id", sess.UserID.String()), zap.Error(err))
		}
	}

	s.logger.Info("session submitted",
		zap.String("session_id", sess.ID.String()),
		zap.Float64("risk_score", assessment.RiskScore),
		zap.String("risk_level", string(assessment.Level)))

	return &SubmitResult{Session: sess, Assessment: assessment, Features: features}, nil
}

// GetBaseline returns a user's current behavioral baseline.
func (s *Service) GetBaseline(ctx context.Context, userID uuid.UUID) (*baseline.Baseline, error) {
	return s.baselines.GetByUser(ctx, userID)
}

// MergeBaseline folds a feature sample into a user's baseline outside the
// submission flow, for proctoring clients that calibrate before the exam.
func (s *Service) MergeBaseline(ctx context.Context, userID uuid.UUID, features map[string]interface{}) (*baseline.Baseline, error) {
	if len(features) == 0 {
		return nil, errors.NewValidationError("EMPTY_FEATURES", "baseline merge requires at least one feature")
	}
	merged, err := s.baselines.MergeSample(ctx, userID, features)
	if err != nil {
		return nil, errors.NewInternalError("failed to merge baseline").WithCause(err)
	}
	s.logger.Debug("baseline merged",
		zap.String("user_id", userID.String()),
		zap.Int("sample_count", merged.SampleCount))
	return merged, nil
}

// ListAlerts returns alerts for an exam, optionally only unresolved ones.
func (s *Service) ListAlerts(ctx context.Context, examID uuid.UUID, unresolvedOnly bool) ([]*alert.Alert, error) {
	return s.alerts.ListByExam(ctx, examID, unresolvedOnly)
}

// ResolveAlert marks an alert as reviewed.
func (s *Service) ResolveAlert(ctx context.Context, id uuid.UUID) error {
	return s.alerts.Resolve(ctx, id)
}

func (s *Service) loadBaseline(ctx context.Context, userID uuid.UUID) *baseline.Baseline {
	base, err := s.baselines.GetByUser(ctx, userID)
	if err != nil {
		if !errors.IsType(err, errors.ErrorTypeNotFound) {
			s.logger.Warn("baseline lookup failed, scoring without baseline",
				zap.String("user_id", userID.String()), zap.Error(err))
		}
		return nil
	}
	return base
}

func (s *Service) applyAssessment(ctx context.Context, sess *session.Session, a risk.Assessment) {
	if a.Degraded {
		s.logger.Warn("risk assessment degraded",
			zap.String("session_id", sess.ID.String()),
			zap.String("cause", a.DegradedCause))
		return
	}
	sess.RecordRisk(a.RiskScore)
	if s.cache != nil {
		if err := s.cache.SetRisk(ctx, sess.ID, a.RiskScore); err != nil {
			s.logger.Warn("risk cache write failed",
				zap.String("session_id", sess.ID.String()), zap.Error(err))
		}
	}
}

func (s *Service) raiseAlertIfNeeded(ctx context.Context, sess *session.Session, a risk.Assessment) {
	if !a.ShouldAlert() {
		return
	}
	al := alert.NewHighRisk(sess.ID, sess.UserID, sess.ExamID, "high_risk_behavior", a.RiskScore, a.Reasons)
	if err := s.alerts.Create(ctx, al); err != nil {
		s.logger.Error("failed to store alert",
			zap.String("session_id", sess.ID.String()), zap.Error(err))
		return
	}
	metrics.IncAlerts()
	s.broadcast.BroadcastAlert(sess.ExamID, al)
	s.logger.Warn("high risk alert raised",
		zap.String("session_id", sess.ID.String()),
		zap.Float64("risk_score", a.RiskScore),
		zap.Strings("reasons", a.Reasons))
}

// summaryFromFeatures projects the full feature map down to the compact
// summary the session scorer and anomaly model consume.
func summaryFromFeatures(features map[string]float64) behavior.Summary {
	return behavior.Summary{
		TypingSpeedWPM:     features["key_typing_speed"],
		MouseSpeedPxs:      features["mouse_speed_mean"],
		AvgQuestionTimeSec: features["answer_time_mean"],
	}
}

func toBaselineFeatures(features map[string]float64) map[string]interface{} {
	out := make(map[string]interface{}, len(features))
	for k, v := range features {
		out[k] = v
	}
	return out
}
