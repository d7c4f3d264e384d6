// Package gate decides whether a comment is a writer's first on an article
// within a fixed time window.
package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultTTL is the length of the dedup window
const DefaultTTL = 48 * time.Hour

const keyPrefix = "c:first:v1:"

// FirstCommentGate is a time-windowed first-claim check over (article, writer) pairs
type FirstCommentGate interface {
	IsFirstWithinWindow(ctx context.Context, articleID, writerID string) bool
}

// RedisGate implements FirstCommentGate with SET NX EX.
// The window starts at the first claim and is never renewed.
type RedisGate struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	log     zerolog.Logger
}

// NewRedisGate creates a gate backed by the Redis server at redisURL.
// The connection is not checked here; use Ping for that.
func NewRedisGate(redisURL string, ttl, timeout time.Duration, log zerolog.Logger) (*RedisGate, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisGateWithClient(redis.NewClient(opts), ttl, timeout, log), nil
}

// NewRedisGateWithClient creates a gate from an existing Redis client
func NewRedisGateWithClient(client *redis.Client, ttl, timeout time.Duration, log zerolog.Logger) *RedisGate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGate{
		client:  client,
		ttl:     ttl,
		timeout: timeout,
		log:     log.With().Str("component", "first_comment_gate").Logger(),
	}
}

// Key returns the marker key for an (article, writer) pair
func Key(articleID, writerID string) string {
	return keyPrefix + articleID + ":" + writerID
}

// IsFirstWithinWindow reports whether this call claimed the marker.
// Store errors and timeouts return false.
func (g *RedisGate) IsFirstWithinWindow(ctx context.Context, articleID, writerID string) bool {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	claimed, err := g.client.SetNX(ctx, Key(articleID, writerID), "1", g.ttl).Result()
	if err != nil {
		g.log.Warn().
			Err(err).
			Str("article_id", articleID).
			Str("writer_id", writerID).
			Msg("First comment gate unavailable, suppressing notification")
		return false
	}
	return claimed
}

// Ping checks if Redis is reachable
func (g *RedisGate) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (g *RedisGate) Close() error {
	return g.client.Close()
}
