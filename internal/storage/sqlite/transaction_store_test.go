package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage"
)

func TestTransactionStoreInsert(t *testing.T) {
	db, ctx := setupDB(t)
	ts := NewTransactionStore(db)
	seedNode(t, ctx, db, 1, "1")

	tx := &domain.Transaction{
		NodeID: 1,
		Time:   floatPtrOf(70178),
		Amount: floatPtrOf(11.99),
	}
	tx.Features[0] = floatPtrOf(-0.44)
	tx.Features[27] = floatPtrOf(0.07)

	id, err := ts.Insert(ctx, tx)
	require.NoError(t, err)
	require.Positive(t, id)

	rows, err := ts.All(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	require.Equal(t, id, got.ID)
	require.Equal(t, "Fog Node 1", got.NodeName)
	require.NotNil(t, got.Time)
	require.InDelta(t, 70178, *got.Time, 1e-9)
	require.NotNil(t, got.Features[0])
	require.InDelta(t, -0.44, *got.Features[0], 1e-9)
	require.Nil(t, got.Features[1], "absent feature should round-trip as NULL")
	require.False(t, got.IngestedAt.IsZero())
}

func TestTransactionStoreInsertUnknownNode(t *testing.T) {
	db, ctx := setupDB(t)
	ts := NewTransactionStore(db)

	_, err := ts.Insert(ctx, &domain.Transaction{NodeID: 42})
	require.ErrorIs(t, err, storage.ErrNodeNotFound)

	count, err := ts.Count(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, count, "rejected insert must write nothing")
}

func TestTransactionStoreCount(t *testing.T) {
	db, ctx := setupDB(t)
	ts := NewTransactionStore(db)
	seedNode(t, ctx, db, 1, "1")
	seedNode(t, ctx, db, 2, "2")

	for i := 0; i < 3; i++ {
		_, err := ts.Insert(ctx, &domain.Transaction{NodeID: 1})
		require.NoError(t, err)
	}
	_, err := ts.Insert(ctx, &domain.Transaction{NodeID: 2})
	require.NoError(t, err)

	one, two := int64(1), int64(2)

	count, err := ts.Count(ctx, &one)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	count, err = ts.Count(ctx, &two)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	total, err := ts.Count(ctx, nil)
	require.NoError(t, err)
	require.EqualValues(t, 4, total)
}

func TestTransactionStoreRecent(t *testing.T) {
	db, ctx := setupDB(t)
	ts := NewTransactionStore(db)
	seedNode(t, ctx, db, 1, "1")
	seedNode(t, ctx, db, 2, "2")

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := ts.Insert(ctx, &domain.Transaction{NodeID: 1})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := ts.Insert(ctx, &domain.Transaction{NodeID: 2})
	require.NoError(t, err)

	recent, err := ts.Recent(ctx, 3, nil)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Newest first; id breaks ties within one timestamp.
	require.Greater(t, recent[0].ID, recent[1].ID)
	require.Greater(t, recent[1].ID, recent[2].ID)

	one := int64(1)
	filtered, err := ts.Recent(ctx, 10, &one)
	require.NoError(t, err)
	require.Len(t, filtered, 5)
	for _, tx := range filtered {
		require.EqualValues(t, 1, tx.NodeID)
	}
	require.Equal(t, ids[4], filtered[0].ID)
}
