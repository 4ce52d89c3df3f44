package orderlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when the stored token matches,
// so a holder whose TTL already expired cannot free a lock that has
// since been granted to someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore implements Store on a shared redis instance, making the
// order lock effective across service replicas.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an established redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Acquire is SET key token NX PX ttl.
func (s *RedisStore) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, token, ttl).Result()
}

// Release runs the token-checked delete.
func (s *RedisStore) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, s.rdb, []string{key}, token).Err()
}
