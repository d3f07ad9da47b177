package vocabulary

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/telemetry"
)

const cacheKeyPrefix = "vocabulary:"

// DefaultCacheTTL applies when CachedSource.TTL is not positive. Cached
// dimension lists always expire.
const DefaultCacheTTL = 5 * time.Minute

// ErrCacheMiss is returned by a Cache when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores serialized dimension values.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSource serves dimension reads from a shared cache across calls.
// Each Load still produces its own immutable snapshot.
type CachedSource struct {
	Source Source
	Cache  Cache
	TTL    time.Duration
}

// Dimension returns cached values for d, reading through to Source on a miss.
// Cache failures never fail the read.
func (c *CachedSource) Dimension(ctx context.Context, p auth.Principal, d Dimension) ([]Value, error) {
	key := cacheKeyPrefix + string(d)
	if raw, err := c.Cache.Get(ctx, key); err == nil {
		var values []Value
		if err := json.Unmarshal(raw, &values); err == nil {
			return values, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		telemetry.Warn("vocabulary.cache_get_failed", map[string]any{"dimension": string(d), "error": err})
	}

	values, err := c.Source.Dimension(ctx, p, d)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(values); err == nil {
		if err := c.Cache.Set(ctx, key, raw, c.ttl()); err != nil {
			telemetry.Warn("vocabulary.cache_set_failed", map[string]any{"dimension": string(d), "error": err})
		}
	}
	return values, nil
}

func (c *CachedSource) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultCacheTTL
	}
	return c.TTL
}

var _ Source = (*CachedSource)(nil)
