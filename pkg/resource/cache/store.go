package cache

import (
	"context"
	"sync"
	"time"
)

// entry holds one cached value. A zero expiry means the entry never
// expires.
type entry struct {
	val []byte
	exp time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

// memoryStore is a mutex-guarded map with lazy expiry on read. The
// janitor calls sweep on a schedule to reclaim entries nobody reads.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]entry)}
}

func (s *memoryStore) get(_ context.Context, key string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Value{}, nil
	}
	if e.expired(time.Now()) {
		delete(s.entries, key)
		return Value{}, nil
	}

	// Copy out so callers cannot mutate the stored slice.
	data := make([]byte, len(e.val))
	copy(data, e.val)
	return Value{Data: data, Found: true}, nil
}

func (s *memoryStore) set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := entry{val: make([]byte, len(val))}
	copy(e.val, val)
	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// sweep removes every expired entry.
func (s *memoryStore) sweep() {
	now := time.Now()

	s.mu.Lock()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

func (s *memoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
