package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
)

// Engine combines the heuristic rule evaluators with the anomaly scorer into
// one bounded risk score. It is stateless apart from its injected
// collaborators and safe for concurrent use; scoring calls for different
// sessions are fully independent.
type Engine struct {
	scorer AnomalyScorer
	logger *zap.Logger
}

func NewEngine(scorer AnomalyScorer, logger *zap.Logger) *Engine {
	return &Engine{scorer: scorer, logger: logger}
}

// ScoreEvent assesses a single just-arrived event: the event-level rules
// supply the heuristic half, the anomaly model scores the session's compact
// behavior summary.
func (e *Engine) ScoreEvent(ctx context.Context, in EventInput) Assessment {
	return e.assess(func() (float64, []string) {
		return EvaluateEvent(in.Payload, in.Baseline)
	}, in.Behavior, in.Events)
}

// ScoreSession assesses a session's aggregated behavior using the weighted
// session-level heuristic components.
func (e *Engine) ScoreSession(ctx context.Context, in SessionInput) Assessment {
	return e.assess(func() (float64, []string) {
		return evaluateSession(in.Behavior, in.Baseline, in.Events)
	}, in.Behavior, in.Events)
}

// assess runs one hybrid scoring call. Any failure inside scoring degrades
// to a zero score with the cause recorded on the assessment; scoring must
// never block the caller's surrounding transaction.
func (e *Engine) assess(heuristic func() (float64, []string), b behavior.Summary, events []*event.Event) (out Assessment) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("risk scoring degraded to zero", zap.Any("cause", r))
			out = degraded(fmt.Sprintf("%v", r))
		}
	}()

	heuristicScore, reasons := heuristic()
	anomalyScore, rawDecision := e.scorer.Score(summaryVector(b, events))

	final := HeuristicWeight*heuristicScore + AnomalyWeight*anomalyScore
	final = clamp01(final)
	if math.IsNaN(final) {
		e.logger.Error("risk scoring degraded to zero", zap.String("cause", "non-finite combined score"))
		return degraded("non-finite combined score")
	}

	return Assessment{
		RiskScore:      final,
		IntegrityScore: 1 - final,
		Level:          LevelFor(final),
		Reasons:        reasons,
		HeuristicScore: heuristicScore,
		AnomalyScore:   anomalyScore,
		RawDecision:    rawDecision,
		Timestamp:      time.Now().UTC(),
	}
}

func degraded(cause string) Assessment {
	return Assessment{
		RiskScore:      0,
		IntegrityScore: 1,
		Level:          LevelLow,
		Degraded:       true,
		DegradedCause:  cause,
		Timestamp:      time.Now().UTC(),
	}
}

// summaryVector reduces the compact behavior summary plus the session's
// event log to the feature order the anomaly model consumes, substituting
// the population defaults for unreported fields.
func summaryVector(b behavior.Summary, events []*event.Event) []float64 {
	tabSwitches := 0.0
	for _, ev := range events {
		if ev.Type == event.TypeTabSwitch {
			tabSwitches++
		}
	}

	wpm := b.TypingSpeedWPM
	if wpm == 0 {
		wpm = defaultBaselineWPM
	}
	mouseSpeed := b.MouseSpeedPxs
	if mouseSpeed == 0 {
		mouseSpeed = defaultBaselineMouseSpeed
	}
	answerTime := b.AvgQuestionTimeSec
	if answerTime == 0 {
		answerTime = defaultBaselineAnswerTime
	}

	return []float64{wpm, tabSwitches, mouseSpeed, answerTime}
}
