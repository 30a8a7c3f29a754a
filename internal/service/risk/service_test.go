package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
)

// stubScorer returns fixed anomaly output.
type stubScorer struct {
	probability float64
	decision    float64
}

func (s stubScorer) Score(features []float64) (float64, float64) {
	return s.probability, s.decision
}

// panicScorer simulates a scoring-path failure.
type panicScorer struct{}

func (panicScorer) Score(features []float64) (float64, float64) {
	panic("anomaly model exploded")
}

// capturingScorer records the feature vector it was handed.
type capturingScorer struct {
	got []float64
}

func (s *capturingScorer) Score(features []float64) (float64, float64) {
	s.got = features
	return 0, 0
}

func TestScoreEvent_HybridCombination(t *testing.T) {
	// Heuristic copy_paste = 0.6, anomaly = 0.2:
	// 0.7*0.6 + 0.3*0.2 = 0.48 -> medium.
	engine := NewEngine(stubScorer{probability: 0.2, decision: 0.1}, zap.NewNop())

	a := engine.ScoreEvent(context.Background(), EventInput{
		Payload:  event.CopyPaste{},
		Behavior: behavior.Summary{TypingSpeedWPM: 50},
	})

	assert.InDelta(t, 0.48, a.RiskScore, 1e-9)
	assert.InDelta(t, 0.52, a.IntegrityScore, 1e-9)
	assert.Equal(t, LevelMedium, a.Level)
	assert.InDelta(t, 0.6, a.HeuristicScore, 1e-9)
	assert.InDelta(t, 0.2, a.AnomalyScore, 1e-9)
	assert.InDelta(t, 0.1, a.RawDecision, 1e-9)
	assert.False(t, a.Degraded)
	assert.Equal(t, []string{"copy_paste"}, a.Reasons)
}

func TestScoreEvent_AlertAtHighThreshold(t *testing.T) {
	// Heuristic 0.6 + strong anomaly pushes the combined score over 0.7.
	engine := NewEngine(stubScorer{probability: 0.95}, zap.NewNop())

	a := engine.ScoreEvent(context.Background(), EventInput{Payload: event.CopyPaste{}})

	assert.GreaterOrEqual(t, a.RiskScore, AlertThreshold)
	assert.Equal(t, LevelHigh, a.Level)
	assert.True(t, a.ShouldAlert())
}

func TestScoreEvent_DegradedOnScorerPanic(t *testing.T) {
	engine := NewEngine(panicScorer{}, zap.NewNop())

	a := engine.ScoreEvent(context.Background(), EventInput{Payload: event.CopyPaste{}})

	assert.True(t, a.Degraded)
	assert.Zero(t, a.RiskScore)
	assert.Equal(t, 1.0, a.IntegrityScore)
	assert.Equal(t, LevelLow, a.Level)
	assert.NotEmpty(t, a.DegradedCause)
	assert.False(t, a.ShouldAlert(), "degraded assessments must never alert")
}

func TestScoreSession_CombinesSessionHeuristic(t *testing.T) {
	engine := NewEngine(stubScorer{probability: 0.5}, zap.NewNop())

	a := engine.ScoreSession(context.Background(), SessionInput{
		Behavior: behavior.Summary{TypingSpeedWPM: 45, MouseSpeedPxs: 500, AvgQuestionTimeSec: 150},
	})

	// Calm heuristic = 0.055, anomaly 0.5:
	// 0.7*0.055 + 0.3*0.5 = 0.1885.
	assert.InDelta(t, 0.1885, a.RiskScore, 1e-9)
	assert.Equal(t, LevelLow, a.Level)
}

func TestScoreEvent_SummaryVectorDefaults(t *testing.T) {
	scorer := &capturingScorer{}
	engine := NewEngine(scorer, zap.NewNop())

	events := tabSwitchEvents(3)
	engine.ScoreEvent(context.Background(), EventInput{
		Payload:  event.CopyPaste{},
		Behavior: behavior.Summary{},
		Events:   events,
	})

	// Zero-valued summary fields fall back to population defaults; the tab
	// count comes from the session's event log.
	assert.Equal(t, []float64{45, 3, 500, 150}, scorer.got)
}

func TestScoreEvent_ClampsToUnitInterval(t *testing.T) {
	engine := NewEngine(stubScorer{probability: 5.0}, zap.NewNop())

	a := engine.ScoreEvent(context.Background(), EventInput{Payload: event.TabSwitch{Count: 100}})

	assert.LessOrEqual(t, a.RiskScore, 1.0)
}
