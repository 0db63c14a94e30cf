package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errPutRefused = errors.New("storage unavailable")

// Memory is the in-process Store used by tests. FailPuts makes every
// Put fail, which is how the post-abort path is exercised.
type Memory struct {
	mu       sync.Mutex
	objects  map[string][]byte
	FailPuts bool
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, key string, data []byte) error {
	if m.FailPuts {
		return errPutRefused
	}
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]
	return ok, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) PublicURL(key string) string {
	return "memory://" + key
}

func (m *Memory) PresignedURL(key string, ttl time.Duration) (string, error) {
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s?exp=%d&sig=%s",
		m.PublicURL(key), expires, Sign([]byte("memory"), key, expires)), nil
}

// Len reports how many objects are stored; test helper.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
