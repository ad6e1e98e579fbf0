package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/internal/cart"
	appconfig "github.com/wolfman30/salon-scheduler/internal/config"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
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

// BuildBookingStore opens the store selected by STORE_BACKEND. The returned
// cleanup releases any pool the store owns.
func BuildBookingStore(ctx context.Context, cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (bookings.Store, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	switch cfg.StoreBackend {
	case appconfig.StoreMemory, "":
		logger.Warn("using in-memory booking store; bookings are lost on restart")
		return bookings.NewMemoryStore(), noop, nil
	case appconfig.StoreRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("bootstrap: redis store selected but redis is unavailable")
		}
		logger.Info("using redis booking store", "addr", cfg.RedisAddr)
		return bookings.NewRedisStore(redisClient, logger), noop, nil
	case appconfig.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: open postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("using postgres booking store")
		return bookings.NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown store backend %q", cfg.StoreBackend)
	}
}

// BuildCartStore keeps carts in Redis when it is reachable, in memory otherwise.
func BuildCartStore(cfg *appconfig.Config, redisClient *redis.Client) cart.Store {
	if redisClient != nil {
		return cart.NewRedisStore(redisClient, cfg.CartTTL)
	}
	return cart.NewMemoryStore(cfg.CartTTL)
}
