package cache

import (
	"context"
	"sync"
	"time"
)

const memorySweepEvery = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is the in-process Store: mutex-guarded map with lazy sweeping of
// expired entries on access.
type Memory struct {
	mu        sync.Mutex
	items     map[string]*memoryEntry
	lastSweep time.Time

	// test hook
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]*memoryEntry),
		now:   time.Now,
	}
}

func (m *Memory) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	now := m.now()

	m.mu.Lock()
	m.maybeSweepLocked(now)
	if entry, ok := m.items[key]; ok && now.Before(entry.expiresAt) {
		value := entry.value
		m.mu.Unlock()
		return value, nil
	}
	m.mu.Unlock()

	// computed outside the lock; concurrent misses may compute twice,
	// last writer wins
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.items[key] = &memoryEntry{value: value, expiresAt: now.Add(ttl)}
	m.mu.Unlock()
	return value, nil
}

func (m *Memory) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.items, key)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) maybeSweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < memorySweepEvery {
		return
	}
	m.lastSweep = now
	for key, entry := range m.items {
		if !now.Before(entry.expiresAt) {
			delete(m.items, key)
		}
	}
}
