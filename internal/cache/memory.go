package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/clock"
)

const DefaultMaxEntries = 500

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is an in-process LRU bounded by entry count. Expiry is checked
// lazily on read against the injected clock.
type Memory struct {
	lru   *lru.Cache[string, entry]
	clock clock.Clock
}

func NewMemory(maxEntries int, clk clock.Clock) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if clk == nil {
		clk = clock.Real{}
	}
	c, err := lru.New[string, entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Memory{lru: c, clock: clk}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.clock.Now().Before(e.expires) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return e.val, true, nil
}

// Set stores val. ttl <= 0 keeps the entry until evicted.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := entry{val: val}
	if ttl > 0 {
		e.expires = m.clock.Now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.lru.Remove(k)
	}
	return nil
}

func (m *Memory) Len() int { return m.lru.Len() }

// Purge drops every entry.
func (m *Memory) Purge() { m.lru.Purge() }
