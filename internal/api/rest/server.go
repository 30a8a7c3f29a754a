package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	ws "github.com/exampulse/exampulse-backend/internal/api/websocket"
	"github.com/exampulse/exampulse-backend/internal/infrastructure/config"
	"github.com/exampulse/exampulse-backend/internal/service/features"
	"github.com/exampulse/exampulse-backend/internal/service/monitor"
)

// Server is the HTTP surface: REST endpoints for sessions, events, baselines
// and alerts, plus the proctor websocket upgrade and the metrics endpoint.
type Server struct {
	cfg        *config.Config
	monitor    *monitor.Service
	extractor  *features.Extractor
	riskCache  monitor.RiskCache
	hub        *ws.ExamEventHub
	logger     *zap.Logger
	httpServer *http.Server
}

func NewServer(
	cfg *config.Config,
	mon *monitor.Service,
	extractor *features.Extractor,
	riskCache monitor.RiskCache,
	hub *ws.ExamEventHub,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:       cfg,
		monitor:   mon,
		extractor: extractor,
		riskCache: riskCache,
		hub:       hub,
		logger:    logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/sessions", s.handleStartSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/activity", s.handleRecordActivity)
	mux.HandleFunc("POST /api/v1/sessions/{id}/submit", s.handleSubmitSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/risk", s.handleGetRisk)

	mux.HandleFunc("GET /api/v1/exams/{examID}/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/v1/exams/{examID}/alerts", s.handleListAlerts)
	mux.HandleFunc("POST /api/v1/alerts/{id}/resolve", s.handleResolveAlert)

	mux.HandleFunc("POST /api/v1/features/extract", s.handleExtractFeatures)
	mux.HandleFunc("GET /api/v1/users/{id}/baseline", s.handleGetBaseline)
	mux.HandleFunc("POST /api/v1/users/{id}/baseline", s.handleMergeBaseline)

	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
