package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/exampulse/exampulse-backend/internal/domain/alert"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
	"github.com/exampulse/exampulse-backend/internal/domain/session"
	"github.com/exampulse/exampulse-backend/internal/metrics"
	"github.com/exampulse/exampulse-backend/internal/service/risk"
)

// ExamEventType labels a message pushed to proctors.
type ExamEventType string

const (
	EventStudentActivity ExamEventType = "student_activity"
	EventRiskUpdate      ExamEventType = "risk_update"
	EventHighRiskAlert   ExamEventType = "high_risk_alert"
)

// ExamEvent is one message on a proctor's stream.
type ExamEvent struct {
	ID        string        `json:"id"`
	Type      ExamEventType `json:"type"`
	ExamID    string        `json:"exam_id"`
	SessionID string        `json:"session_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Data      interface{}   `json:"data,omitempty"`
}

// ExamEventHub fans out live exam events to proctor websocket clients. Each
// client watches one exam; broadcasts are routed by exam ID. Delivery is
// best effort: a slow client gets disconnected rather than backing up the
// scoring path.
type ExamEventHub struct {
	logger      *zap.Logger
	clients     map[uuid.UUID]*ProctorClient
	clientsLock sync.RWMutex
	broadcast   chan *ExamEvent
	register    chan *ProctorClient
	unregister  chan *ProctorClient
	done        chan struct{}
}

// ProctorClient is one connected proctor watching an exam.
type ProctorClient struct {
	ID     uuid.UUID
	ExamID uuid.UUID
	conn   *websocket.Conn
	send   chan *ExamEvent
	hub    *ExamEventHub
}

func NewExamEventHub(logger *zap.Logger) *ExamEventHub {
	return &ExamEventHub{
		logger:     logger,
		clients:    make(map[uuid.UUID]*ProctorClient),
		broadcast:  make(chan *ExamEvent, 100),
		register:   make(chan *ProctorClient),
		unregister: make(chan *ProctorClient),
		done:       make(chan struct{}),
	}
}

// Run drives the hub until the context ends or Stop is called.
func (h *ExamEventHub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-h.done:
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case ev := <-h.broadcast:
			h.broadcastEvent(ev)
		case <-ticker.C:
			h.pingClients()
		}
	}
}

func (h *ExamEventHub) Stop() {
	close(h.done)
}

// BroadcastActivity pushes one scored proctoring event to the exam's proctors.
func (h *ExamEventHub) BroadcastActivity(examID uuid.UUID, ev *event.Event, assessment risk.Assessment) {
	h.enqueue(&ExamEvent{
		ID:        uuid.New().String(),
		Type:      EventStudentActivity,
		ExamID:    examID.String(),
		SessionID: ev.SessionID.String(),
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"event_type": string(ev.Type),
			"severity":   string(ev.Severity),
			"risk_score": assessment.RiskScore,
			"risk_level": string(assessment.Level),
		},
	})
}

// BroadcastRiskUpdate pushes a session's new risk state to the exam's proctors.
func (h *ExamEventHub) BroadcastRiskUpdate(examID uuid.UUID, s *session.Session, assessment risk.Assessment) {
	h.enqueue(&ExamEvent{
		ID:        uuid.New().String(),
		Type:      EventRiskUpdate,
		ExamID:    examID.String(),
		SessionID: s.ID.String(),
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"risk_score":      assessment.RiskScore,
			"integrity_score": assessment.IntegrityScore,
			"risk_level":      string(assessment.Level),
			"reasons":         assessment.Reasons,
			"degraded":        assessment.Degraded,
		},
	})
}

// BroadcastAlert pushes a raised high-risk alert to the exam's proctors.
func (h *ExamEventHub) BroadcastAlert(examID uuid.UUID, a *alert.Alert) {
	h.enqueue(&ExamEvent{
		ID:        uuid.New().String(),
		Type:      EventHighRiskAlert,
		ExamID:    examID.String(),
		SessionID: a.SessionID.String(),
		Timestamp: time.Now().UTC(),
		Data:      a,
	})
}

// enqueue drops the event if the hub's broadcast buffer is full; scoring
// must never wait on slow consumers.
func (h *ExamEventHub) enqueue(ev *ExamEvent) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("broadcast buffer full, dropping event",
			zap.String("type", string(ev.Type)),
			zap.String("exam_id", ev.ExamID))
	}
}

func (h *ExamEventHub) RegisterClient(client *ProctorClient) {
	h.register <- client
}

func (h *ExamEventHub) UnregisterClient(client *ProctorClient) {
	h.unregister <- client
}

func (h *ExamEventHub) registerClient(client *ProctorClient) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	h.clients[client.ID] = client
	metrics.WSConnect()
	h.logger.Info("proctor client registered",
		zap.String("client_id", client.ID.String()),
		zap.String("exam_id", client.ExamID.String()))

	welcome := &ExamEvent{
		ID:        uuid.New().String(),
		Type:      "connection.established",
		ExamID:    client.ExamID.String(),
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"client_id": client.ID.String(),
			"message":   "Connected to exam event stream",
		},
	}
	select {
	case client.send <- welcome:
	default:
	}
}

func (h *ExamEventHub) unregisterClient(client *ProctorClient) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	if _, exists := h.clients[client.ID]; exists {
		delete(h.clients, client.ID)
		close(client.send)
		metrics.WSDisconnect()
		h.logger.Info("proctor client unregistered",
			zap.String("client_id", client.ID.String()))
	}
}

func (h *ExamEventHub) broadcastEvent(ev *ExamEvent) {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()

	for _, client := range h.clients {
		if client.ExamID.String() != ev.ExamID {
			continue
		}
		select {
		case client.send <- ev:
		default:
			h.logger.Warn("client send channel full, closing connection",
				zap.String("client_id", client.ID.String()))
			go func(c *ProctorClient) {
				h.unregister <- c
			}(client)
		}
	}
}

func (h *ExamEventHub) pingClients() {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()

	for _, client := range h.clients {
		if err := client.conn.WriteControl(
			websocket.PingMessage,
			nil,
			time.Now().Add(10*time.Second),
		); err != nil {
			h.logger.Error("failed to ping client",
				zap.String("client_id", client.ID.String()),
				zap.Error(err))
			go func(c *ProctorClient) {
				h.unregister <- c
			}(client)
		}
	}
}

func (h *ExamEventHub) shutdown() {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	for _, client := range h.clients {
		close(client.send)
		client.conn.Close()
	}
	h.clients = make(map[uuid.UUID]*ProctorClient)
}

// NewProctorClient wraps an upgraded connection for one exam's stream.
func NewProctorClient(conn *websocket.Conn, hub *ExamEventHub, examID uuid.UUID) *ProctorClient {
	return &ProctorClient{
		ID:     uuid.New(),
		ExamID: examID,
		conn:   conn,
		send:   make(chan *ExamEvent, 10),
		hub:    hub,
	}
}

// ReadPump pumps control messages from the connection to the hub.
func (c *ProctorClient) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket read error",
					zap.String("client_id", c.ID.String()),
					zap.Error(err))
			}
			break
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
			pong := &ExamEvent{
				ID:        uuid.New().String(),
				Type:      "pong",
				ExamID:    c.ExamID.String(),
				Timestamp: time.Now().UTC(),
			}
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

// WritePump pumps events from the hub to the connection.
func (c *ProctorClient) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
