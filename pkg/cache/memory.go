package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	data []byte
	exp  time.Time
}

// Memory is an in-process TTL cache. It is the fallback when Redis is
// not configured.
type Memory struct {
	mu sync.RWMutex
	m  map[string]entry
}

// NewMemory creates an in-process TTL cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]entry)}
}

func (c *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{data: data, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *Memory) Close() error { return nil }
