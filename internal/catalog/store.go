// Package catalog owns the in-memory paper catalog and keeps it fresh.
package catalog

import (
	"sync"
	"time"

	"github.com/kailas-cloud/paperbot/internal/domain/paper"
)

// Snapshot is a consistent view of the catalog at one point in time.
type Snapshot struct {
	Catalog   *paper.Catalog
	Version   uint64
	UpdatedAt time.Time
}

// Loaded reports whether at least one catalog has been stored.
func (s Snapshot) Loaded() bool { return s.Version > 0 }

// Store holds the current catalog. Readers share the lock, Replace holds it
// only for the pointer swap.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		snap: Snapshot{Catalog: paper.NewCatalog(nil)},
		now:  time.Now,
	}
}

// Read returns the current snapshot. The catalog inside is never mutated.
func (s *Store) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Replace swaps in a new catalog wholesale. A nil catalog is stored as empty.
func (s *Store) Replace(c *paper.Catalog) Snapshot {
	if c == nil {
		c = paper.NewCatalog(nil)
	}
	now := s.now()

	s.mu.Lock()
	s.snap = Snapshot{Catalog: c, Version: s.snap.Version + 1, UpdatedAt: now}
	snap := s.snap
	s.mu.Unlock()

	return snap
}
