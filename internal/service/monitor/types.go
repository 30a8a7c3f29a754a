package monitor

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
	"github.com/exampulse/exampulse-backend/internal/domain/session"
	"github.com/exampulse/exampulse-backend/internal/service/risk"
)

// ActivityInput is one proctoring event reported by the exam client.
type ActivityInput struct {
	SessionID uuid.UUID        `json:"session_id"`
	EventType event.Type       `json:"event_type"`
	Payload   json.RawMessage  `json:"payload"`
	Behavior  behavior.Summary `json:"behavior"`
}

// ActivityResult carries the stored event and its risk assessment back to
// the caller.
type ActivityResult struct {
	Event      *event.Event    `json:"event"`
	Assessment risk.Assessment `json:"assessment"`
}

// SubmitInput finalizes a session with the student's answers and the full
// behavior telemetry captured during the exam.
type SubmitInput struct {
	SessionID        uuid.UUID       `json:"session_id"`
	Answers          json.RawMessage `json:"answers"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
	Sample           behavior.Sample `json:"sample"`
}

// SubmitResult is the final state of a submitted session.
type SubmitResult struct {
	Session    *session.Session   `json:"session"`
	Assessment risk.Assessment    `json:"assessment"`
	Features   map[string]float64 `json:"features"`
}
