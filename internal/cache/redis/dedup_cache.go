package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupCache implements domain.DedupCache on Redis so that multiple replicas
// share one fingerprint window: SET NX with a TTL is the check-and-insert, and
// expiry is handled server-side.
type DedupCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewDedupCache creates a DedupCache with the given TTL window.
func NewDedupCache(c *Client, ttl time.Duration) *DedupCache {
	return &DedupCache{
		rdb:    c.Underlying(),
		ttl:    ttl,
		prefix: "dedup:fp:",
	}
}

// Seen records the fingerprint and reports whether it was already present and
// unexpired. SET NX makes the race between concurrent batches atomic.
func (d *DedupCache) Seen(ctx context.Context, fingerprint string) (bool, error) {
	inserted, err := d.rdb.SetNX(ctx, d.prefix+fingerprint, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: dedup setnx %s: %w", fingerprint, err)
	}
	return !inserted, nil
}
