package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/exampulse/exampulse-backend/internal/domain/errors"
)

// ResponseEnvelope wraps all API responses.
type ResponseEnvelope struct {
	Success bool           `json:"success"`
	Data    interface{}    `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
	Meta    ResponseMeta   `json:"meta"`
}

type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	envelope := ResponseEnvelope{
		Success: true,
		Data:    data,
		Meta:    ResponseMeta{Timestamp: time.Now().UTC(), Version: s.cfg.Version},
	}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError maps domain errors to HTTP responses. AppErrors carry their own
// status codes; anything else is an opaque 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := &ErrorResponse{Code: "INTERNAL_ERROR", Message: "An internal error occurred"}

	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		resp.Code = appErr.Code
		resp.Message = appErr.Message
		resp.Details = appErr.Details
	} else {
		s.logger.Error("unhandled error", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	envelope := ResponseEnvelope{
		Success: false,
		Error:   resp,
		Meta:    ResponseMeta{Timestamp: time.Now().UTC(), Version: s.cfg.Version},
	}
	if encErr := json.NewEncoder(w).Encode(envelope); encErr != nil {
		s.logger.Error("failed to encode error response", zap.Error(encErr))
	}
}

func (s *Server) writeValidationError(w http.ResponseWriter, message string) {
	s.writeError(w, domainErrors.NewValidationError("INVALID_REQUEST", message))
}
