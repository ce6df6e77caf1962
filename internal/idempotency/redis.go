package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "idempotency:sms:v1:"
	inProgressMarker = "__in_progress__"
)

// RedisGuard stores reservations and completed results in Redis so every
// replica sees the same dedupe state.
type RedisGuard struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisGuard builds a Redis-backed guard. Completed results live for ttl;
// in-progress markers for at most PendingTTL.
func NewRedisGuard(cache *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{cache: cache, ttl: ttl}
}

// Reserve claims key with SETNX. If the key already exists, the stored result
// is returned for replay, or ErrInProgress while the first delivery is running.
func (g *RedisGuard) Reserve(ctx context.Context, key string) (Reservation, error) {
	cacheKey := keyPrefix + key
	ok, err := g.cache.SetNX(ctx, cacheKey, inProgressMarker, pendingTTL(g.ttl)).Result()
	if err != nil {
		return Reservation{}, fmt.Errorf("idempotency reservation: %w", err)
	}
	if ok {
		return Reservation{}, nil
	}

	cached, err := g.cache.Get(ctx, cacheKey).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = g.cache.SetNX(ctx, cacheKey, inProgressMarker, pendingTTL(g.ttl)).Result()
		if err != nil {
			return Reservation{}, fmt.Errorf("idempotency reservation: %w", err)
		}
		if ok {
			return Reservation{}, nil
		}
		return Reservation{}, ErrInProgress
	}
	if err != nil {
		return Reservation{}, fmt.Errorf("idempotency lookup: %w", err)
	}
	if cached == inProgressMarker {
		return Reservation{}, ErrInProgress
	}
	return Reservation{Replay: true, Stored: []byte(cached)}, nil
}

// Complete replaces the in-progress marker with the final result.
func (g *RedisGuard) Complete(ctx context.Context, key string, result []byte) error {
	if err := g.cache.Set(ctx, keyPrefix+key, result, g.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency persist: %w", err)
	}
	return nil
}

// Release drops the reservation so a later delivery can run again.
func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.cache.Del(ctx, keyPrefix+key).Err()
}
