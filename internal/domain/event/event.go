package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type tags a behavioral event reported by the exam client.
type Type string

const (
	TypeTabSwitch  Type = "tab_switch"
	TypeCopyPaste  Type = "copy_paste"
	TypeTyping     Type = "typing"
	TypeWindowBlur Type = "window_blur"
)

// Severity buckets an event for proctor triage, independent of the session
// risk score.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Event is a single behavioral occurrence within an exam session. The core
// pipeline consumes events read-only; persistence belongs to the repository
// layer.
type Event struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Type      Type      `json:"event_type"`
	Payload   Payload   `json:"payload"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Payload is the closed set of event payload variants. Raw client payloads
// are validated into exactly one variant at the transport boundary so the
// rule evaluator can match exhaustively instead of probing untyped maps.
type Payload interface {
	EventType() Type
}

// TabSwitch reports one or more tab switches since the last report.
type TabSwitch struct {
	Count int `json:"count"`
}

func (TabSwitch) EventType() Type { return TypeTabSwitch }

// CopyPaste reports a detected clipboard paste into the exam.
type CopyPaste struct{}

func (CopyPaste) EventType() Type { return TypeCopyPaste }

// Typing reports the current observed typing speed.
type Typing struct {
	WPM float64 `json:"wpm"`
}

func (Typing) EventType() Type { return TypeTyping }

// WindowBlur reports a period of lost window focus.
type WindowBlur struct {
	DurationSeconds float64 `json:"duration_seconds"`
}

func (WindowBlur) EventType() Type { return TypeWindowBlur }

// ParsePayload validates a raw client payload into its typed variant.
func ParsePayload(eventType Type, raw json.RawMessage) (Payload, error) {
	switch eventType {
	case TypeTabSwitch:
		p := TabSwitch{Count: 1}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid tab_switch payload: %w", err)
			}
		}
		if p.Count < 0 {
			return nil, fmt.Errorf("tab_switch count must be non-negative, got %d", p.Count)
		}
		return p, nil
	case TypeCopyPaste:
		return CopyPaste{}, nil
	case TypeTyping:
		var p Typing
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid typing payload: %w", err)
			}
		}
		if p.WPM < 0 {
			return nil, fmt.Errorf("typing wpm must be non-negative, got %v", p.WPM)
		}
		return p, nil
	case TypeWindowBlur:
		var p WindowBlur
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("invalid window_blur payload: %w", err)
			}
		}
		if p.DurationSeconds < 0 {
			return nil, fmt.Errorf("window_blur duration must be non-negative, got %v", p.DurationSeconds)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

// New creates an event with a derived severity.
func New(sessionID uuid.UUID, payload Payload) *Event {
	return &Event{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      payload.EventType(),
		Payload:   payload,
		Severity:  DeriveSeverity(payload),
		Timestamp: time.Now().UTC(),
	}
}

// DeriveSeverity buckets an event by how strongly its payload alone suggests
// misconduct: pastes and rapid tab switching are high, long focus loss is
// medium, everything else low.
func DeriveSeverity(payload Payload) Severity {
	switch p := payload.(type) {
	case CopyPaste:
		return SeverityHigh
	case TabSwitch:
		if p.Count > 3 {
			return SeverityHigh
		}
		return SeverityLow
	case WindowBlur:
		if p.DurationSeconds > 30 {
			return SeverityMedium
		}
		return SeverityLow
	default:
		return SeverityLow
	}
}
