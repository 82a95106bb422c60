package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock is already held")

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// IngestLockKey is the lock key guarding ingest of one playlist location.
func IngestLockKey(location string) string {
	return "lock:ingest:" + Hash(location)
}

// TryLock acquires the lock named key with SET NX EX. On success the
// returned unlock func must be called to release it.
func TryLock(ctx context.Context, r *Redis, key string, ttl time.Duration) (unlock func(), err error) {
	token := randomToken()
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		// Background context: the caller's may already be cancelled.
		_ = releaseScript.Run(context.Background(), r.client, []string{keyPrefix + key}, token).Err()
	}, nil
}

// IsLocked reports whether the lock key exists.
func IsLocked(ctx context.Context, r *Redis, key string) bool {
	n, _ := r.client.Exists(ctx, keyPrefix+key).Result()
	return n > 0
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
