package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/errors"
	"github.com/exampulse/exampulse-backend/internal/service/monitor"
)

type startSessionRequest struct {
	ExamID uuid.UUID `json:"exam_id"`
	UserID uuid.UUID `json:"user_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeValidationError(w, "invalid JSON body")
		return
	}
	if req.ExamID == uuid.Nil || req.UserID == uuid.Nil {
		s.writeValidationError(w, "exam_id and user_id are required")
		return
	}

	sess, err := s.monitor.StartSession(r.Context(), req.ExamID, req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	sess, err := s.monitor.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	examID, ok := s.pathUUID(w, r, "examID")
	if !ok {
		return
	}
	sessions, err := s.monitor.ListSessions(r.Context(), examID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var in monitor.ActivityInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeValidationError(w, "invalid JSON body")
		return
	}
	in.SessionID = id
	if in.EventType == "" {
		s.writeValidationError(w, "event_type is required")
		return
	}

	result, err := s.monitor.RecordActivity(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleSubmitSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var in monitor.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeValidationError(w, "invalid JSON body")
		return
	}
	in.SessionID = id

	result, err := s.monitor.SubmitSession(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleGetRisk reads the session's latest risk score, preferring the cache
// and falling back to the stored session row.
func (s *Server) handleGetRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if s.riskCache != nil {
		if score, found, err := s.riskCache.GetRisk(r.Context(), id); err == nil && found {
			s.writeJSON(w, http.StatusOK, map[string]interface{}{
				"session_id": id,
				"risk_score": score,
				"source":     "cache",
			})
			return
		}
	}

	sess, err := s.monitor.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": id,
		"risk_score": sess.RiskScore,
		"source":     "database",
	})
}

type extractFeaturesRequest struct {
	Sample behavior.Sample `json:"sample"`
}

func (s *Server) handleExtractFeatures(w http.ResponseWriter, r *http.Request) {
	var req extractFeaturesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeValidationError(w, "invalid JSON body")
		return
	}
	if err := req.Sample.Validate(); err != nil {
		s.writeValidationError(w, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.extractor.Extract(req.Sample))
}

func (s *Server) handleGetBaseline(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	base, err := s.monitor.GetBaseline(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, base)
}

func (s *Server) handleMergeBaseline(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Features map[string]interface{} `json:"features"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeValidationError(w, "invalid JSON body")
		return
	}
	merged, err := s.monitor.MergeBaseline(r.Context(), id, req.Features)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, merged)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	examID, ok := s.pathUUID(w, r, "examID")
	if !ok {
		return
	}
	unresolvedOnly := r.URL.Query().Get("unresolved") == "true"

	alerts, err := s.monitor.ListAlerts(r.Context(), examID, unresolvedOnly)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.monitor.ResolveAlert(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.cfg.Version,
	})
}

func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.writeError(w, errors.NewValidationError("INVALID_ID", "path parameter "+name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
