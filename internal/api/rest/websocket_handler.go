package rest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	ws "github.com/exampulse/exampulse-backend/internal/api/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks belong to the deployment's reverse proxy.
		return true
	},
}

// handleWebSocket upgrades a proctor connection and subscribes it to one
// exam's live event stream.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	examID, err := uuid.Parse(r.URL.Query().Get("exam_id"))
	if err != nil {
		s.writeValidationError(w, "exam_id query parameter must be a UUID")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewProctorClient(conn, s.hub, examID)
	s.hub.RegisterClient(client)

	go client.WritePump()
	go client.ReadPump()
}
