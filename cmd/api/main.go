package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/exampulse/exampulse-backend/internal/api/rest"
	ws "github.com/exampulse/exampulse-backend/internal/api/websocket"
	"github.com/exampulse/exampulse-backend/internal/infrastructure/cache"
	"github.com/exampulse/exampulse-backend/internal/infrastructure/config"
	"github.com/exampulse/exampulse-backend/internal/infrastructure/database"
	"github.com/exampulse/exampulse-backend/internal/infrastructure/repository"
	"github.com/exampulse/exampulse-backend/internal/service/anomaly"
	"github.com/exampulse/exampulse-backend/internal/service/features"
	"github.com/exampulse/exampulse-backend/internal/service/monitor"
	"github.com/exampulse/exampulse-backend/internal/service/risk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("application failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting exampulse backend",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port))

	pool, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer pool.Close()

	riskCache, err := cache.NewRiskCache(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connecting redis: %w", err)
	}
	defer riskCache.Close()

	scorer := anomaly.NewScorer(cfg.Model.ArtifactPath, logger)
	engine := risk.NewEngine(scorer, logger)
	extractor := features.NewExtractor()

	hub := ws.NewExamEventHub(logger)
	go hub.Run(ctx)

	mon := monitor.NewService(
		repository.NewSessionRepository(pool),
		repository.NewEventRepository(pool),
		repository.NewAlertRepository(pool),
		repository.NewBaselineRepository(pool),
		engine,
		extractor,
		hub,
		riskCache,
		logger,
	)

	server := rest.NewServer(cfg, mon, extractor, riskCache, hub, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stdout"}

	return zapCfg.Build()
}
