// Package dashboard builds and serves the monitoring read model: a
// periodically refreshed snapshot of nodes, recent activity and derived
// statistics, exposed as a JSON API and a self-refreshing HTML page.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"fog-fraud-lab/internal/aggregation"
	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage"
)

// NodeView is a node row with its status derived from last_seen at snapshot
// time, not the stale status column.
type NodeView struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Location    string            `json:"location"`
	Description string            `json:"description"`
	StringID    string            `json:"node_string_id"`
	Status      domain.NodeStatus `json:"status"`
	LastSeen    *time.Time        `json:"last_seen"`
}

// Snapshot is one consistent view of the store, rebuilt on every refresh.
type Snapshot struct {
	GeneratedAt       time.Time                     `json:"generated_at"`
	Nodes             []NodeView                    `json:"nodes"`
	TotalTransactions int64                         `json:"total_transactions"`
	Transactions      []*domain.TransactionWithNode `json:"transactions"`
	FraudResults      []*domain.FraudResultWithNode `json:"fraud_results"`
	Stats             *domain.FraudStats            `json:"stats"`
	VolumeBuckets     []aggregation.Bucket          `json:"volume_buckets"`
	FraudByNode       []aggregation.NodeFraudRate   `json:"fraud_by_node"`
}

// Builder assembles snapshots from the store.
type Builder struct {
	nodes            storage.NodeStore
	transactions     storage.TransactionStore
	results          storage.FraudResultStore
	maxRows          int
	offlineThreshold time.Duration
	now              func() time.Time
}

// BuilderOptions contains configuration for creating a Builder.
type BuilderOptions struct {
	NodeStore        storage.NodeStore
	TransactionStore storage.TransactionStore
	FraudResultStore storage.FraudResultStore
	MaxRows          int
	OfflineThreshold time.Duration
}

// NewBuilder creates a new Builder.
func NewBuilder(opts BuilderOptions) *Builder {
	return &Builder{
		nodes:            opts.NodeStore,
		transactions:     opts.TransactionStore,
		results:          opts.FraudResultStore,
		maxRows:          opts.MaxRows,
		offlineThreshold: opts.OfflineThreshold,
		now:              time.Now,
	}
}

// Build reads the store and assembles a fresh snapshot.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	now := b.now()

	nodes, err := b.nodes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, NodeView{
			ID:          n.ID,
			Name:        n.Name,
			Location:    n.Location,
			Description: n.Description,
			StringID:    n.StringID,
			Status:      aggregation.ClassifyStatus(n.LastSeen, now, b.offlineThreshold),
			LastSeen:    n.LastSeen,
		})
	}

	total, err := b.transactions.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	recent, err := b.transactions.Recent(ctx, b.maxRows, nil)
	if err != nil {
		return nil, fmt.Errorf("loading recent transactions: %w", err)
	}

	recentResults, err := b.results.Recent(ctx, b.maxRows, nil)
	if err != nil {
		return nil, fmt.Errorf("loading recent fraud results: %w", err)
	}

	stats, err := b.results.Stats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("computing fraud stats: %w", err)
	}

	// Charts aggregate over all history, not the recent window.
	allTx, err := b.transactions.All(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	allResults, err := b.results.All(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("loading fraud results: %w", err)
	}

	return &Snapshot{
		GeneratedAt:       now,
		Nodes:             views,
		TotalTransactions: total,
		Transactions:      recent,
		FraudResults:      recentResults,
		Stats:             stats,
		VolumeBuckets:     aggregation.BucketCounts(allTx),
		FraudByNode:       aggregation.FraudRateByNode(allResults),
	}, nil
}
