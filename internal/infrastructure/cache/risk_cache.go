package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/exampulse/exampulse-backend/internal/infrastructure/config"
)

// RiskCache keeps the latest risk score per session in Redis so proctor
// dashboards can poll cheaply without touching the scoring path.
type RiskCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRiskCache(cfg config.RedisConfig, logger *zap.Logger) (*RiskCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("risk cache initialized",
		zap.String("addr", cfg.URL),
		zap.Int("db", cfg.DB),
		zap.Duration("ttl", cfg.RiskTTL))

	return &RiskCache{client: client, ttl: cfg.RiskTTL, logger: logger}, nil
}

func riskKey(sessionID uuid.UUID) string {
	return "exampulse:risk:" + sessionID.String()
}

func (c *RiskCache) SetRisk(ctx context.Context, sessionID uuid.UUID, score float64) error {
	return c.client.Set(ctx, riskKey(sessionID), strconv.FormatFloat(score, 'f', -1, 64), c.ttl).Err()
}

func (c *RiskCache) GetRisk(ctx context.Context, sessionID uuid.UUID) (float64, bool, error) {
	val, err := c.client.Get(ctx, riskKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("risk cache read failed: %w", err)
	}
	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("risk cache holds non-numeric value: %w", err)
	}
	return score, true, nil
}

func (c *RiskCache) Close() error {
	return c.client.Close()
}
