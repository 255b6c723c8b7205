package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/vkovalov/workbot/internal/config"
	"github.com/vkovalov/workbot/internal/stats"
	"github.com/vkovalov/workbot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildStatsStore wires the stats persistence backend selected by config.
// The memory backend returns a nil store; the aggregator then runs without
// write-behind persistence. The returned cleanup closes any opened
// connections and is safe to call exactly once.
func BuildStatsStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (stats.Store, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	noop := func() {}

	switch cfg.StatsBackend {
	case "", "memory":
		return nil, noop, nil
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, nil, fmt.Errorf("bootstrap: redis stats backend selected but redis is unavailable")
		}
		logger.Info("stats persistence enabled", "backend", "redis", "addr", cfg.RedisAddr)
		return stats.NewRedisStore(client), func() { _ = client.Close() }, nil
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, fmt.Errorf("bootstrap: postgres stats backend selected but DATABASE_URL is empty")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		store := stats.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("bootstrap: ensure stats schema: %w", err)
		}
		logger.Info("stats persistence enabled", "backend", "postgres")
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown stats backend %q", cfg.StatsBackend)
	}
}
