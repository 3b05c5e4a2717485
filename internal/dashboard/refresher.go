package dashboard

import (
	"context"
	"log"
	"sync"
	"time"

	"fog-fraud-lab/internal/observability"
)

// Refresher rebuilds the snapshot on a timer and hands out the latest copy.
// Reads never block on a rebuild; a failed rebuild keeps the previous
// snapshot in place.
type Refresher struct {
	builder  *Builder
	interval time.Duration
	auto     bool
	logger   *log.Logger
	metrics  *observability.Metrics

	mu       sync.RWMutex
	snapshot *Snapshot
}

// RefresherOptions contains configuration for creating a Refresher.
type RefresherOptions struct {
	Builder     *Builder
	Interval    time.Duration
	AutoRefresh bool
	Logger      *log.Logger
	Metrics     *observability.Metrics
}

// NewRefresher creates a new Refresher.
func NewRefresher(opts RefresherOptions) *Refresher {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{
		builder:  opts.Builder,
		interval: opts.Interval,
		auto:     opts.AutoRefresh,
		logger:   logger,
		metrics:  opts.Metrics,
	}
}

// Snapshot returns the most recent snapshot, or nil before the first refresh.
func (r *Refresher) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Refresh rebuilds the snapshot once. Also backs the manual-refresh endpoint
// when auto-refresh is disabled.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()
	snap, err := r.builder.Build(ctx)
	if err != nil {
		if r.metrics != nil {
			r.metrics.SnapshotRefreshErrors.Inc()
		}
		return err
	}

	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SnapshotRefreshes.Inc()
		r.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// Run refreshes once immediately, then on every tick until the context is
// cancelled. With auto-refresh disabled it builds the initial snapshot and
// parks until cancellation.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		r.logger.Printf("Initial snapshot build failed: %v", err)
	}

	if !r.auto {
		r.logger.Println("Auto-refresh disabled, waiting for manual refreshes")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Printf("Snapshot refresh failed: %v", err)
			}
		}
	}
}
