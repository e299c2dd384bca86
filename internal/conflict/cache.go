package conflict

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const resolvedKeyPrefix = "callsift:resolved:"

// ResolvedPairCache remembers recently auto-resolved pairs so a re-run
// within the TTL does not re-emit them. Detection stays correct without it;
// the cache only makes re-runs cheaper. All failures degrade to "not
// cached".
type ResolvedPairCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResolvedPairCache creates a cache with the given entry TTL.
func NewResolvedPairCache(client *redis.Client, ttl time.Duration) *ResolvedPairCache {
	if client == nil {
		return nil
	}
	return &ResolvedPairCache{client: client, ttl: ttl}
}

// IsResolved reports whether the pair was marked resolved within the TTL.
func (c *ResolvedPairCache) IsResolved(ctx context.Context, pairID string) bool {
	if c == nil {
		return false
	}
	n, err := c.client.Exists(ctx, resolvedKeyPrefix+pairID).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// MarkResolved records a pair as resolved for the cache TTL.
func (c *ResolvedPairCache) MarkResolved(ctx context.Context, pairID string) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, resolvedKeyPrefix+pairID, "1", c.ttl).Err()
}
