// Package assets loads palettes, sprites and fonts from disk, with a cache
// keyed by file modification time so edited assets reload without a server
// restart (not the source of truth, the files are).
package assets

import (
	"sync"
	"time"
)

// Entry is one cached parse result plus the file state it came from.
type Entry struct {
	Value   interface{}
	ModTime time.Time
}

// Store is the cache interface. This allows for easy mocking in tests.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
	Del(key string)
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-process cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

func (s *MemoryStore) Set(key string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}

func (s *MemoryStore) Del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

var _ Store = (*MemoryStore)(nil)
