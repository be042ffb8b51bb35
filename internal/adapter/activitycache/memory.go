package activitycache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Memory is an in-process Store whose entries expire after a TTL.
type Memory struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[int64]memoryEntry
}

type memoryEntry struct {
	kp      float64
	expires time.Time
}

// NewMemory creates an in-memory store. A nil clock uses the real clock.
func NewMemory(ttl time.Duration, clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[int64]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, slot time.Time) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slot.Unix()
	e, ok := m.entries[key]
	if !ok {
		return 0, false, nil
	}
	if !m.clock.Now().Before(e.expires) {
		delete(m.entries, key)
		return 0, false, nil
	}
	return e.kp, true, nil
}

func (m *Memory) Set(_ context.Context, slot time.Time, kp float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	m.entries[slot.Unix()] = memoryEntry{kp: kp, expires: m.clock.Now().Add(m.ttl)}
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	return len(m.entries)
}

// sweep drops expired entries. Caller holds mu.
func (m *Memory) sweep() {
	now := m.clock.Now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
}
