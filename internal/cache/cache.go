// Package cache is the read-model cache for listing queries. It is a
// pure optimization: every caller must behave identically when the
// cache is disabled, which is what a TTL of zero does.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Cache stores serialized read models. Implementations are best-effort:
// a broken cache degrades to misses, never to errors surfaced upward.
type Cache interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value for ttl. A ttl <= 0 stores nothing, so setting
	// CACHE_TTL=0 turns the whole cache off.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Invalidate drops every key beginning with prefix.
	Invalidate(ctx context.Context, prefix string)
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process Cache used by tests and single-node setups.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
}

func (m *Memory) Invalidate(ctx context.Context, prefix string) {
	m.mu.Lock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}
