package cachesync

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// RedisCache stores remaining counts as one hash per segment with a
// field per seat class code.  It implements CacheWriter for the
// syncer and exposes the read side for the listing path.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps an established redis client.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// IncrField applies one signed increment to a hash field.
func (c *RedisCache) IncrField(ctx context.Context, key, field string, delta int64) error {
	return c.rdb.HIncrBy(ctx, key, field, delta).Err()
}

// Remaining reads the cached remaining count for a segment and seat
// class.  A missing field reads as zero: the cache is derived and a
// cold key simply means nothing has been counted yet.
func (c *RedisCache) Remaining(ctx context.Context, seg model.Segment, class model.SeatClass) (int64, error) {
	val, err := c.rdb.HGet(ctx, seg.CacheKey(), strconv.Itoa(class.Code())).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// SetRemaining seeds the cache field directly.  Used when a train run
// is first published, before any change-feed traffic exists.
func (c *RedisCache) SetRemaining(ctx context.Context, seg model.Segment, class model.SeatClass, count int64) error {
	return c.rdb.HSet(ctx, seg.CacheKey(), strconv.Itoa(class.Code()), count).Err()
}
