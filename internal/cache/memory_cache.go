package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	val     []byte
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]entry)}
}

func (c *MemoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.live(key)
	c.mu.Unlock()
	if !ok || bytes.HasPrefix(e.val, leaseMark) {
		return false, nil
	}
	if err := json.Unmarshal(e.val, dst); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Lease(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live(key); ok {
		return "", false, nil
	}
	token := string(leaseMark) + uuid.NewString()
	c.put(key, []byte(token), ttl)
	return token, true, nil
}

func (c *MemoryCache) FillJSON(_ context.Context, key, token string, val any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok || !bytes.Equal(e.val, []byte(token)) {
		return false, nil
	}
	c.put(key, b, ttl)
	return true, nil
}

// live returns the unexpired entry for key. c.mu must be held.
func (c *MemoryCache) live(key string) (entry, bool) {
	e, ok := c.items[key]
	if ok && !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(c.items, key)
		return entry{}, false
	}
	return e, ok
}

func (c *MemoryCache) put(key string, val []byte, ttl time.Duration) {
	e := entry{val: val}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	c.items[key] = e
}
