package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds the Redis backed stores, or their in-memory versions when
// Redis is disabled or unreachable
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect opens the shared Redis client when Redis is enabled
func (f *Factory) Connect(ctx context.Context) error {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory token blacklist and rate limits")
		return nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.client = client
		f.logger.Info("Connected to Redis", zap.String("addr", f.redisConfig.Addr()))
		return nil
	}
	if !f.allowInMemoryFallback {
		return fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Logouts and rate limits will not be shared between instances.",
		zap.Error(err),
	)
	return nil
}

// Client returns the Redis client, nil when running in memory
func (f *Factory) Client() *redis.Client {
	return f.client
}

// TokenBlacklist creates the JWT blacklist
func (f *Factory) TokenBlacklist() auth.TokenBlacklist {
	if f.client != nil {
		return auth.NewRedisTokenBlacklist(f.client)
	}
	return auth.NewInMemoryTokenBlacklist()
}

// Limiter creates a fixed window limiter under the given name
func (f *Factory) Limiter(name string, limit int, window time.Duration) Limiter {
	if f.client != nil {
		return NewRedisLimiter(f.client, "accounts:ratelimit:"+name+":", limit, window)
	}
	return NewInMemoryLimiter(limit, window)
}

// Close releases the Redis client
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
