// Package cache holds short-lived copies of public catalog responses.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store keeps raw response bodies by key. A miss is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, keys ...string) error
}

type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
}

type entry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if now.After(e.exp) {
		c.evictExpired(key, now)
		return nil, false, nil
	}

	return e.val, true, nil
}

// evictExpired deletes key only if the entry present under the write lock
// is still expired at now, so a Set racing with Get survives.
func (c *Memory) evictExpired(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.m[key]; ok && now.After(e.exp) {
		delete(c.m, key)
	}
}

func (c *Memory) Set(_ context.Context, key string, val []byte) error {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *Memory) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.m, k)
	}
	c.mu.Unlock()
	return nil
}
