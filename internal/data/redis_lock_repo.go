package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onco-dash/citewatch/internal/core"
)

// deleteIfValueScript removes KEYS[1] only while it still holds ARGV[1].
var deleteIfValueScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLockRepo implements the LockRepository interface using Redis.
type RedisLockRepo struct {
	client redis.UniversalClient
}

// NewRedisLockRepo creates a new RedisLockRepo with the given Redis client.
func NewRedisLockRepo(client redis.UniversalClient) *RedisLockRepo {
	return &RedisLockRepo{client: client}
}

var _ core.LockRepository = (*RedisLockRepo)(nil)

// SetIfNotExists atomically sets a key only if it doesn't already exist.
// Uses Redis SET with NX and TTL options for guaranteed atomicity.
func (r *RedisLockRepo) SetIfNotExists(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	actualTTL := ttl
	if ttl <= 0 {
		actualTTL = time.Second // Minimum TTL of 1 second
	}

	// SETNX followed by EXPIRE is not atomic; SET NX with TTL is.
	status, err := r.client.SetArgs(ctx, key, value, redis.SetArgs{Mode: "NX", TTL: actualTTL}).Result()
	if err != nil {
		// go-redis reports an unmet NX condition as redis.Nil.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}

	return status == "OK", nil
}

// DeleteIfValue removes key only while it holds value.
func (r *RedisLockRepo) DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	n, err := deleteIfValueScript.Run(ctx, r.client, []string{key}, value).Int64()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-delete: %w", err)
	}
	return n > 0, nil
}

// Delete removes a key from Redis.
func (r *RedisLockRepo) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	result, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}

	return result > 0, nil
}

// Health checks the health of the Redis connection.
func (r *RedisLockRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
