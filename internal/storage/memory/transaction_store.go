package memory

import (
	"context"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage"
)

// TransactionStore is the in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	s *Store
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a transaction and returns its assigned id. Returns
// ErrNodeNotFound when the node id is unknown; nothing is written.
func (ts *TransactionStore) Insert(_ context.Context, t *domain.Transaction) (int64, error) {
	if t == nil || t.NodeID == 0 {
		return 0, storage.ErrInvalidInput
	}

	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()

	if _, ok := ts.s.nodes[t.NodeID]; !ok {
		return 0, storage.ErrNodeNotFound
	}

	copy := *t
	copy.ID = ts.s.nextTxID
	copy.IngestedAt = ts.s.now()
	ts.s.nextTxID++
	ts.s.transactions = append(ts.s.transactions, &copy)
	return copy.ID, nil
}

// Count returns the number of transactions, optionally for one node.
func (ts *TransactionStore) Count(_ context.Context, nodeID *int64) (int64, error) {
	ts.s.mu.RLock()
	defer ts.s.mu.RUnlock()

	if nodeID == nil {
		return int64(len(ts.s.transactions)), nil
	}
	var count int64
	for _, t := range ts.s.transactions {
		if t.NodeID == *nodeID {
			count++
		}
	}
	return count, nil
}

// Recent retrieves up to limit transactions ordered by ingestion time
// descending, joined with the owning node's name.
func (ts *TransactionStore) Recent(ctx context.Context, limit int, nodeID *int64) ([]*domain.TransactionWithNode, error) {
	return ts.list(nodeID, limit), nil
}

// All retrieves the full history ordered by ingestion time descending.
func (ts *TransactionStore) All(_ context.Context, nodeID *int64) ([]*domain.TransactionWithNode, error) {
	return ts.list(nodeID, 0), nil
}

// list walks transactions newest-first. Insertion order matches ingestion
// time order, so iterating backwards gives the descending listing.
func (ts *TransactionStore) list(nodeID *int64, limit int) []*domain.TransactionWithNode {
	ts.s.mu.RLock()
	defer ts.s.mu.RUnlock()

	var out []*domain.TransactionWithNode
	for i := len(ts.s.transactions) - 1; i >= 0; i-- {
		t := ts.s.transactions[i]
		if nodeID != nil && t.NodeID != *nodeID {
			continue
		}
		out = append(out, &domain.TransactionWithNode{
			Transaction: *t,
			NodeName:    ts.s.nodeName(t.NodeID),
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
