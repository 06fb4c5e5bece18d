// Package cache provides the bounded TTL caches shared by the analytics,
// lead, and query-dispatch read paths. Instances are built once by the
// composition root and injected.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values with a per-entry TTL. Implementations must be
// safe for concurrent use. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
