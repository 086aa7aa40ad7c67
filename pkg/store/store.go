// pkg/store/store.go
package store

import (
	"sync"
	"time"

	"github.com/retail-dw/conformance/pkg/model"
)

// Snapshot is the complete output of one conformance run: every conformed
// entity batch plus run provenance. A snapshot is immutable once built.
type Snapshot struct {
	RunID      string
	ProducedAt time.Time

	Customers      []model.Customer
	Products       []model.Product
	SalesLines     []model.SalesLine
	Locations      []model.Location
	CustomerExtras []model.CustomerExtra
	Categories     []model.Category
}

// Store holds the currently committed snapshot. Swaps are atomic: readers
// always observe a complete snapshot, never a half-written run, and a
// failed run leaves the previous snapshot in place.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
}

// New creates an empty store
func New() *Store {
	return &Store{}
}

// Swap commits a snapshot, fully replacing the previous one
func (s *Store) Swap(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
}

// Current returns the committed snapshot, false when no run has
// committed yet
func (s *Store) Current() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current, true
}
