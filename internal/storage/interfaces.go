package storage

import (
	"context"

	"fog-fraud-lab/internal/domain"
)

// NodeStore provides access to fog_nodes storage.
type NodeStore interface {
	// Upsert inserts a node or updates its mutable fields (name, location,
	// description, string id) keyed on the numeric id. Idempotent.
	Upsert(ctx context.Context, n *domain.Node) error

	// GetByStringID retrieves a node by its textual identifier
	// (e.g. "Fog_Node_1"). Returns ErrNotFound if not exists.
	GetByStringID(ctx context.Context, stringID string) (*domain.Node, error)

	// GetByID retrieves a node by numeric id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Node, error)

	// List retrieves all nodes ordered by id.
	List(ctx context.Context) ([]*domain.Node, error)

	// Touch sets the node's status and refreshes last_seen to the current
	// time. Silent no-op if the id is unknown.
	Touch(ctx context.Context, id int64, status domain.NodeStatus) error
}

// TransactionStore provides access to transactions storage.
type TransactionStore interface {
	// Insert adds a transaction and returns its assigned id. Returns
	// ErrNodeNotFound if the node id does not reference an existing node;
	// the store is left unchanged in that case.
	Insert(ctx context.Context, t *domain.Transaction) (int64, error)

	// Count returns the number of transactions, for one node when nodeID is
	// non-nil, otherwise across all nodes.
	Count(ctx context.Context, nodeID *int64) (int64, error)

	// Recent retrieves up to limit transactions ordered by ingestion time
	// descending, joined with the owning node's name.
	Recent(ctx context.Context, limit int, nodeID *int64) ([]*domain.TransactionWithNode, error)

	// All retrieves the full history (unbounded), ordered by ingestion time
	// descending. Used for full-history aggregation.
	All(ctx context.Context, nodeID *int64) ([]*domain.TransactionWithNode, error)
}

// FraudResultStore provides access to fraud_results storage.
type FraudResultStore interface {
	// Insert adds a fraud result and returns its assigned id. Returns
	// ErrNodeNotFound if the node id does not reference an existing node and
	// ErrInvalidInput if the prediction is outside {0,1}.
	Insert(ctx context.Context, r *domain.FraudResult) (int64, error)

	// Recent retrieves up to limit results ordered by ingestion time
	// descending, joined with the owning node's name.
	Recent(ctx context.Context, limit int, nodeID *int64) ([]*domain.FraudResultWithNode, error)

	// All retrieves the full history (unbounded), ordered by ingestion time
	// descending.
	All(ctx context.Context, nodeID *int64) ([]*domain.FraudResultWithNode, error)

	// Stats returns total, fraud_count and fraud_rate for one node when
	// nodeID is non-nil, otherwise across all nodes. fraud_rate is 0 when
	// there are no results in scope.
	Stats(ctx context.Context, nodeID *int64) (*domain.FraudStats, error)
}
