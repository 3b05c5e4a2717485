package memory

import (
	"context"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage"
)

// FraudResultStore is the in-memory implementation of storage.FraudResultStore.
type FraudResultStore struct {
	s *Store
}

// Compile-time interface check.
var _ storage.FraudResultStore = (*FraudResultStore)(nil)

// Insert adds a fraud result and returns its assigned id.
func (fs *FraudResultStore) Insert(_ context.Context, r *domain.FraudResult) (int64, error) {
	if r == nil || r.NodeID == 0 {
		return 0, storage.ErrInvalidInput
	}
	if r.Prediction != domain.PredictionLegitimate && r.Prediction != domain.PredictionFraud {
		return 0, storage.ErrInvalidInput
	}

	fs.s.mu.Lock()
	defer fs.s.mu.Unlock()

	if _, ok := fs.s.nodes[r.NodeID]; !ok {
		return 0, storage.ErrNodeNotFound
	}

	copy := *r
	copy.ID = fs.s.nextResultID
	copy.IngestedAt = fs.s.now()
	fs.s.nextResultID++
	fs.s.results = append(fs.s.results, &copy)
	return copy.ID, nil
}

// Recent retrieves up to limit results ordered by ingestion time descending.
func (fs *FraudResultStore) Recent(_ context.Context, limit int, nodeID *int64) ([]*domain.FraudResultWithNode, error) {
	return fs.list(nodeID, limit), nil
}

// All retrieves the full history ordered by ingestion time descending.
func (fs *FraudResultStore) All(_ context.Context, nodeID *int64) ([]*domain.FraudResultWithNode, error) {
	return fs.list(nodeID, 0), nil
}

func (fs *FraudResultStore) list(nodeID *int64, limit int) []*domain.FraudResultWithNode {
	fs.s.mu.RLock()
	defer fs.s.mu.RUnlock()

	var out []*domain.FraudResultWithNode
	for i := len(fs.s.results) - 1; i >= 0; i-- {
		r := fs.s.results[i]
		if nodeID != nil && r.NodeID != *nodeID {
			continue
		}
		out = append(out, &domain.FraudResultWithNode{
			FraudResult: *r,
			NodeName:    fs.s.nodeName(r.NodeID),
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Stats returns total, fraud_count and fraud_rate for the scope.
func (fs *FraudResultStore) Stats(_ context.Context, nodeID *int64) (*domain.FraudStats, error) {
	fs.s.mu.RLock()
	defer fs.s.mu.RUnlock()

	var stats domain.FraudStats
	for _, r := range fs.s.results {
		if nodeID != nil && r.NodeID != *nodeID {
			continue
		}
		stats.Total++
		if r.Prediction == domain.PredictionFraud {
			stats.FraudCount++
		}
	}
	if stats.Total > 0 {
		stats.FraudRate = float64(stats.FraudCount) / float64(stats.Total) * 100
	}
	return &stats, nil
}
