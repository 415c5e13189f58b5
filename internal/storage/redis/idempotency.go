// Package redis guards order creation against duplicate submissions.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "shop:idempotency:order:"

// DefaultIdempotencyTTL is used when no positive TTL is configured.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyGuard records client supplied idempotency keys with SET NX so
// that each key is accepted once per actor until it expires.
type IdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyGuard creates a guard backed by client.
func NewIdempotencyGuard(client *redis.Client, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyGuard{client: client, ttl: ttl}
}

func idempotencyKey(actorID int64, key string) string {
	return fmt.Sprintf("%s%d:%s", idempotencyKeyPrefix, actorID, key)
}

// Claim reserves key for actorID. It reports false when the key was already
// claimed and has not expired.
func (g *IdempotencyGuard) Claim(ctx context.Context, actorID int64, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, idempotencyKey(actorID, key), time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "claim idempotency key")
	}
	return ok, nil
}

// Release frees key so the request can be retried.
func (g *IdempotencyGuard) Release(ctx context.Context, actorID int64, key string) error {
	if err := g.client.Del(ctx, idempotencyKey(actorID, key)).Err(); err != nil {
		return errors.Wrap(err, "release idempotency key")
	}
	return nil
}

// Ping checks the connection to redis.
func (g *IdempotencyGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
