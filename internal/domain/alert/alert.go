package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alert is the value object produced when a scoring call crosses the alert
// threshold. The core produces it; persistence and proctor broadcast belong
// to collaborators.
type Alert struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	ExamID    uuid.UUID `json:"exam_id"`
	AlertType string    `json:"alert_type"`
	RiskScore float64   `json:"risk_score"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Reasons   []string  `json:"reasons,omitempty"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
}

// NewHighRisk builds a high-severity alert for a scoring call whose final
// risk crossed the alert threshold.
func NewHighRisk(sessionID, userID, examID uuid.UUID, alertType string, riskScore float64, reasons []string) *Alert {
	return &Alert{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		ExamID:    examID,
		AlertType: alertType,
		RiskScore: riskScore,
		Severity:  "high",
		Message:   fmt.Sprintf("High risk behavior detected (risk=%.2f): %s", riskScore, alertType),
		Reasons:   reasons,
		CreatedAt: time.Now().UTC(),
	}
}
