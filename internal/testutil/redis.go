package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCandidates are probed in order when REDIS_ADDR is unset: the compose service
// name used in CI, a plain local instance, then the local test profile port.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

// SetupTestRedis returns a client bound to a reserved logical DB, flushed before use.
// The test is skipped when no Redis answers, unless TEST_REQUIRE_REDIS is set.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := findRedis(t)
	if !ok {
		if requireRedis() {
			t.Fatal("Redis not available for testing")
		}
		t.Skip("Redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		t.Fatalf("flush test redis db at %s: %v", addr, err)
	}
	if tc, ok := any(t).(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(func() { closeAndLog(t, "redis client", client) })
	}
	return client
}

func findRedis(t TestingTB) (string, bool) {
	t.Helper()

	candidates := redisCandidates
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	for _, addr := range candidates {
		if pingRedis(t, addr) {
			return addr, true
		}
	}
	return "", false
}

func pingRedis(t TestingTB, addr string) bool {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer closeAndLog(t, "redis probe", client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Logf("Redis not available at %s: %v", addr, err)
		return false
	}
	return true
}

// reserveRedisDB picks a logical DB so parallel packages do not flush each other.
// TEST_REDIS_DB wins; otherwise a reservation key in DB 0 claims one of 1..15.
func reserveRedisDB(t TestingTB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("Invalid TEST_REDIS_DB=%q, falling back to auto-select", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
	defer closeAndLog(t, "redis meta client", meta)

	holder := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for i := 1; i <= 15; i++ {
		key := fmt.Sprintf("citewatch:testutil:db_lock:%d", i)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := meta.SetNX(ctx, key, holder, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		releaseRedisDB(t, addr, key)
		return i
	}
	t.Logf("Falling back to Redis DB=1 for tests at %s", addr)
	return 1
}

func releaseRedisDB(t TestingTB, addr, key string) {
	tc, ok := any(t).(interface{ Cleanup(func()) })
	if !ok {
		return
	}
	tc.Cleanup(func() {
		c := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
		defer closeAndLog(t, "redis cleanup client", c)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.Del(ctx, key).Err(); err != nil {
			t.Logf("warning: failed to release redis db lock %s: %v", key, err)
		}
	})
}
