package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Dedup is an advisory short-circuit for duplicate gateway notifications.
// The database transaction remains the source of truth; a miss or a redis
// outage only costs a redundant (and harmless) finalize attempt.
type Dedup interface {
	// Seen reports whether the reference was already processed.
	Seen(ctx context.Context, txRef string) bool

	// Mark records the reference as processed.
	Mark(ctx context.Context, txRef string)

	Close() error
}

// NopDedup never suppresses anything. Used when redis is disabled.
type NopDedup struct{}

func (NopDedup) Seen(context.Context, string) bool { return false }
func (NopDedup) Mark(context.Context, string)      {}
func (NopDedup) Close() error                      { return nil }

const (
	keyDedup = "dedup:payments:%s"
	ttlDedup = 48 * time.Hour
)

// redisDedup implements Dedup on a redis client.
type redisDedup struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisDedup creates a redis-backed dedup cache.
func NewRedisDedup(addr string, logger zerolog.Logger) Dedup {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
	return &redisDedup{
		client: client,
		logger: logger.With().Str("component", "dedup-cache").Logger(),
	}
}

func (d *redisDedup) Seen(ctx context.Context, txRef string) bool {
	n, err := d.client.Exists(ctx, fmt.Sprintf(keyDedup, txRef)).Result()
	if err != nil {
		d.logger.Warn().Err(err).Str("tx_ref", txRef).Msg("dedup lookup failed, treating as unseen")
		return false
	}
	return n > 0
}

func (d *redisDedup) Mark(ctx context.Context, txRef string) {
	if err := d.client.Set(ctx, fmt.Sprintf(keyDedup, txRef), 1, ttlDedup).Err(); err != nil {
		d.logger.Warn().Err(err).Str("tx_ref", txRef).Msg("failed to mark reference as processed")
	}
}

func (d *redisDedup) Close() error {
	return d.client.Close()
}
