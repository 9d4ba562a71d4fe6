package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache reads through an in-process L1 to a shared L2 (normally Redis).
type LayeredCache struct {
	l1  *MemoryCache
	l2  Service
	l1T time.Duration
}

var _ Service = (*LayeredCache)(nil)

// NewLayeredCache builds a two-level cache. l1TTL bounds how long an L2 hit is
// kept in memory.
func NewLayeredCache(l2 Service, l1 *MemoryCache, l1TTL time.Duration) *LayeredCache {
	if l1 == nil {
		l1 = NewMemoryCache()
	}
	return &LayeredCache{l1: l1, l2: l2, l1T: l1TTL}
}

// Set writes L2 first. An L2 failure still populates L1 and is returned.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	err := lc.l2.Set(ctx, key, value, expiration)
	ttl := expiration
	if lc.l1T > 0 && (ttl <= 0 || lc.l1T < ttl) {
		ttl = lc.l1T
	}
	_ = lc.l1.Set(ctx, key, value, ttl)
	return err
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.l2.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			return errors.Join(ErrCacheMiss, err)
		}
		return err
	}
	_ = lc.l1.Set(ctx, key, dest, lc.l1T)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := lc.l1.Exists(ctx, key); ok {
		return true, nil
	}
	return lc.l2.Exists(ctx, key)
}

func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
