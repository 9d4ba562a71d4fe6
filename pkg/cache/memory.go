package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

// MemoryCache is a size-bounded LRU holding JSON-encoded values.
// Every entry carries its own expiry; expired entries are dropped lazily on access.
type MemoryCache struct {
	items      *lru.Cache[string, memoryItem]
	defaultTTL time.Duration
	now        func() time.Time
}

var _ Service = (*MemoryCache)(nil)

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:    1000,
		DefaultTTL: 24 * time.Hour,
		Now:        time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}
	// size is positive, the only error lru.New reports
	items, _ := lru.New[string, memoryItem](cfg.MaxSize)
	return &MemoryCache{
		items:      items,
		defaultTTL: cfg.DefaultTTL,
		now:        cfg.Now,
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if expiration <= 0 {
		expiration = mc.defaultTTL
	}
	mc.items.Add(key, memoryItem{data: data, expireAt: mc.now().Add(expiration)})
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	item, ok := mc.items.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if mc.now().After(item.expireAt) {
		mc.items.Remove(key)
		return ErrCacheMiss
	}
	if err := json.Unmarshal(item.data, dest); err != nil {
		return fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		mc.items.Remove(key)
	}
	return nil
}

// Exists does not refresh the entry's recency.
func (mc *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	item, ok := mc.items.Peek(key)
	if !ok {
		return false, nil
	}
	if mc.now().After(item.expireAt) {
		mc.items.Remove(key)
		return false, nil
	}
	return true, nil
}

// Len counts entries, including expired ones not yet evicted.
func (mc *MemoryCache) Len() int { return mc.items.Len() }

func (mc *MemoryCache) Close() error {
	mc.items.Purge()
	return nil
}
