package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"articlegen/internal/domain"
)

// DefaultGateTTL is the minimum spacing between provider polls of one task.
const DefaultGateTTL = 3 * time.Second

const gateKeyPrefix = "articlegen:reconcile:"

// RedisReconcileGate implements domain.ReconcileGate with SET NX. The first
// caller per task and TTL wins; the rest serve the stored state.
type RedisReconcileGate struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisReconcileGate creates a gate over client. A non-positive ttl uses
// DefaultGateTTL.
func NewRedisReconcileGate(client redis.UniversalClient, ttl time.Duration) (*RedisReconcileGate, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultGateTTL
	}
	return &RedisReconcileGate{client: client, ttl: ttl}, nil
}

// Allow reports whether the caller may query the provider for taskID now.
func (g *RedisReconcileGate) Allow(ctx context.Context, taskID string) (bool, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return false, errors.New("task id cannot be empty")
	}
	ok, err := g.client.SetNX(ctx, gateKeyPrefix+taskID, time.Now().UnixMilli(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Reset clears the throttle for taskID.
func (g *RedisReconcileGate) Reset(ctx context.Context, taskID string) error {
	if err := g.client.Del(ctx, gateKeyPrefix+strings.TrimSpace(taskID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

var _ domain.ReconcileGate = (*RedisReconcileGate)(nil)
