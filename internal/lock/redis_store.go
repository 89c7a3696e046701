package lock

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when the caller still owns it, so a
// late release after expiry can never drop another holder's lock.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// renewScript extends the TTL only for the current owner.
var renewScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('PEXPIRE', KEYS[1], ARGV[2])
    end
    return 0
`)

// RedisStore implements Store on a Redis keyspace. Acquisition is a
// plain SET NX PX; ownership checks run server-side in Lua so the
// compare and the mutation are atomic.
type RedisStore struct {
    rdb *redis.Client
}

// NewRedisStore wraps an existing client. The client must be non-nil;
// callers that failed to reach Redis should fall back to MemStore.
func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
    return s.rdb.SetNX(ctx, key, token, ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key, token string) (bool, error) {
    n, err := releaseScript.Run(ctx, s.rdb, []string{key}, token).Int64()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

func (s *RedisStore) Renew(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
    n, err := renewScript.Run(ctx, s.rdb, []string{key}, token, ttl.Milliseconds()).Int64()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}
