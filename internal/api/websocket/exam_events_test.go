package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/exampulse/exampulse-backend/internal/domain/alert"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
	"github.com/exampulse/exampulse-backend/internal/domain/session"
	"github.com/exampulse/exampulse-backend/internal/service/risk"
)

func newTestClient(hub *ExamEventHub, examID uuid.UUID) *ProctorClient {
	return &ProctorClient{
		ID:     uuid.New(),
		ExamID: examID,
		send:   make(chan *ExamEvent, 10),
		hub:    hub,
	}
}

func drain(c *ProctorClient) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func TestBroadcastEvent_RoutedByExam(t *testing.T) {
	hub := NewExamEventHub(zap.NewNop())
	examA, examB := uuid.New(), uuid.New()

	clientA := newTestClient(hub, examA)
	clientB := newTestClient(hub, examB)
	hub.registerClient(clientA)
	hub.registerClient(clientB)
	drain(clientA)
	drain(clientB)

	ev := event.New(uuid.New(), event.CopyPaste{})
	hub.BroadcastActivity(examA, ev, risk.Assessment{RiskScore: 0.6, Level: risk.LevelMedium})
	hub.broadcastEvent(<-hub.broadcast)

	select {
	case got := <-clientA.send:
		assert.Equal(t, EventStudentActivity, got.Type)
		assert.Equal(t, examA.String(), got.ExamID)
	default:
		t.Fatal("exam A client should have received the event")
	}

	select {
	case <-clientB.send:
		t.Fatal("exam B client must not receive exam A events")
	default:
	}
}

func TestRegisterClient_SendsWelcome(t *testing.T) {
	hub := NewExamEventHub(zap.NewNop())
	client := newTestClient(hub, uuid.New())

	hub.registerClient(client)

	select {
	case got := <-client.send:
		assert.Equal(t, ExamEventType("connection.established"), got.Type)
	default:
		t.Fatal("expected welcome message")
	}
}

func TestBroadcastAlert_CarriesAlertPayload(t *testing.T) {
	hub := NewExamEventHub(zap.NewNop())
	examID := uuid.New()
	client := newTestClient(hub, examID)
	hub.registerClient(client)
	drain(client)

	a := alert.NewHighRisk(uuid.New(), uuid.New(), examID, "high_risk_behavior", 0.9, []string{"copy_paste"})
	hub.BroadcastAlert(examID, a)
	hub.broadcastEvent(<-hub.broadcast)

	got := <-client.send
	require.Equal(t, EventHighRiskAlert, got.Type)
	assert.Equal(t, a, got.Data)
}

func TestEnqueue_DropsWhenBufferFull(t *testing.T) {
	hub := NewExamEventHub(zap.NewNop())
	examID := uuid.New()

	sess := session.New(examID, uuid.New())
	for i := 0; i < 200; i++ {
		hub.BroadcastRiskUpdate(examID, sess, risk.Assessment{})
	}

	// The buffer holds 100; the rest were dropped without blocking.
	assert.Len(t, hub.broadcast, 100)
}
