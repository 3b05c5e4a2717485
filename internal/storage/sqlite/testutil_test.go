package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage/migrations"
)

// setupDB opens a fresh database file under the test's temp dir and applies
// the schema.
func setupDB(t *testing.T) (*DB, context.Context) {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db.DB))
	return db, ctx
}

func seedNode(t *testing.T, ctx context.Context, db *DB, id int64, name string) {
	t.Helper()
	require.NoError(t, NewNodeStore(db).Upsert(ctx, &domain.Node{
		ID:       id,
		Name:     "Fog Node " + name,
		StringID: "Fog_Node_" + name,
	}))
}

func floatPtrOf(v float64) *float64 { return &v }
