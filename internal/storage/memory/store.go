// Package memory provides in-memory implementations of the storage
// interfaces for tests and the --use-memory mode. The three entity stores
// share one Store so foreign-key checks against fog nodes behave like the
// SQLite schema.
package memory

import (
	"sync"
	"time"

	"fog-fraud-lab/internal/domain"
)

// Store holds all in-memory state. Zero value is not usable; call NewStore.
type Store struct {
	mu           sync.RWMutex
	nodes        map[int64]*domain.Node
	transactions []*domain.Transaction
	results      []*domain.FraudResult
	nextTxID     int64
	nextResultID int64

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		nodes:        make(map[int64]*domain.Node),
		nextTxID:     1,
		nextResultID: 1,
		now:          time.Now,
	}
}

// SetClock replaces the store's clock. Test helper.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// NodeStore returns the node store view.
func (s *Store) NodeStore() *NodeStore {
	return &NodeStore{s: s}
}

// TransactionStore returns the transaction store view.
func (s *Store) TransactionStore() *TransactionStore {
	return &TransactionStore{s: s}
}

// FraudResultStore returns the fraud result store view.
func (s *Store) FraudResultStore() *FraudResultStore {
	return &FraudResultStore{s: s}
}

// nodeName looks up a node's display name; empty when unknown, matching the
// left join in the SQLite listing queries.
func (s *Store) nodeName(id int64) string {
	if n, ok := s.nodes[id]; ok {
		return n.Name
	}
	return ""
}
