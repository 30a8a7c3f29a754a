package risk

import (
	"time"

	"github.com/exampulse/exampulse-backend/internal/domain/baseline"
	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
)

// Level is the categorical risk bucket derived from the numeric score.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// LevelFor buckets a score by the fixed thresholds.
func LevelFor(score float64) Level {
	switch {
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Assessment is the outcome of one scoring call. Degraded marks assessments
// where scoring failed and the zero score is a fallback rather than a
// genuine measurement, so callers and audits can tell the two apart.
type Assessment struct {
	RiskScore      float64   `json:"risk_score"`
	IntegrityScore float64   `json:"integrity_score"`
	Level          Level     `json:"risk_level"`
	Reasons        []string  `json:"reasons,omitempty"`
	HeuristicScore float64   `json:"heuristic_score"`
	AnomalyScore   float64   `json:"anomaly_score"`
	RawDecision    float64   `json:"raw_decision"`
	Degraded       bool      `json:"degraded,omitempty"`
	DegradedCause  string    `json:"degraded_cause,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ShouldAlert reports whether this assessment crosses the alert threshold.
func (a Assessment) ShouldAlert() bool {
	return !a.Degraded && a.RiskScore >= AlertThreshold
}

// EventInput scores a single just-arrived behavioral event in the context of
// its session so far.
type EventInput struct {
	Payload  event.Payload
	Behavior behavior.Summary
	Baseline *baseline.Baseline
	Events   []*event.Event
}

// SessionInput scores a session's aggregated behavior, typically at submit.
type SessionInput struct {
	Behavior behavior.Summary
	Baseline *baseline.Baseline
	Events   []*event.Event
}

// AnomalyScorer is the contract the hybrid engine needs from the
// unsupervised model: a bounded probability plus the raw decision value.
type AnomalyScorer interface {
	Score(features []float64) (probability, decision float64)
}
