package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the limiter with a shared redis counter so the same
// window is enforced across every process pointing at the same instance.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Increment bumps the counter at key and sets its expiry if it has none
// yet. INCR, EXPIRE NX and PTTL run inside one MULTI/EXEC so the first
// write and its expiry land together; a counter can never be created
// without a TTL.
func (r *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, time.Time, error) {
	now := time.Now()

	pipe := r.client.TxPipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	ttlCmd := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("redis pipeline error: %w", err)
	}

	counter := incrCmd.Val()

	currentTTL := ttlCmd.Val()
	if currentTTL <= 0 {
		return counter, now.Add(ttl), nil
	}

	return counter, now.Add(currentTTL), nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (int64, time.Time, error) {
	now := time.Now()

	pipe := r.client.TxPipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)

	_, err := pipe.Exec(ctx)
	if err == redis.Nil {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis pipeline error: %w", err)
	}

	counter, err := getCmd.Int64()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("parse counter error: %w", err)
	}

	currentTTL := ttlCmd.Val()
	if currentTTL <= 0 {
		return 0, time.Time{}, nil
	}

	return counter, now.Add(currentTTL), nil
}
