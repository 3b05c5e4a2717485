package sqlite

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"fog-fraud-lab/internal/observability"
	"fog-fraud-lab/internal/storage"
)

func TestQueryErrorCounter(t *testing.T) {
	db, ctx := setupDB(t)
	metrics := observability.NewMetrics("", prometheus.NewRegistry())
	db.SetMetrics(metrics)

	nodes := NewNodeStore(db)
	txs := NewTransactionStore(db)

	// A not-found lookup is handled by the caller, not a database failure.
	_, err := nodes.GetByStringID(ctx, "no_such_node")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("get_node")))

	require.NoError(t, db.Close())

	_, err = txs.Count(ctx, nil)
	require.Error(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("count_transactions")))
}

func TestQueryErrorCounterOptional(t *testing.T) {
	db, ctx := setupDB(t)
	require.NoError(t, db.Close())

	// Stores work without metrics attached.
	_, err := NewTransactionStore(db).Count(ctx, nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, storage.ErrNotFound))
}
