package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

// Memo layers JSON encoding and load deduplication over a Cache. Cache
// failures are logged and fall through to the loader.
type Memo struct {
	cache Cache
	group singleflight.Group
	log   *logger.Logger
}

func NewMemo(c Cache, baseLog *logger.Logger) *Memo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Memo{cache: c, log: baseLog.With("component", "CacheMemo")}
}

// Remember returns the cached value for key or calls load once per key across
// concurrent callers and caches its result for ttl. Errors are not cached.
func Remember[T any](ctx context.Context, m *Memo, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if m == nil || m.cache == nil {
		return load(ctx)
	}
	if raw, ok, err := m.cache.Get(ctx, key); err != nil {
		m.log.Warn("cache get failed", "key", key, "error", err)
	} else if ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		m.log.Warn("cache entry undecodable, reloading", "key", key)
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(val); err == nil {
			if err := m.cache.Set(ctx, key, raw, ttl); err != nil {
				m.log.Warn("cache set failed", "key", key, "error", err)
			}
		}
		return val, nil
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, nil
	}
	return out, nil
}

func (m *Memo) Invalidate(ctx context.Context, keys ...string) {
	if m == nil || m.cache == nil || len(keys) == 0 {
		return
	}
	if err := m.cache.Delete(ctx, keys...); err != nil {
		m.log.Warn("cache invalidate failed", "keys", keys, "error", err)
	}
}
