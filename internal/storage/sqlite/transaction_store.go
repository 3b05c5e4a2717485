package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using SQLite.
type TransactionStore struct {
	db *DB
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(db *DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// featureColumns returns "v1, v2, ..., v28".
func featureColumns() string {
	cols := make([]string, domain.FeatureCount)
	for i := range cols {
		cols[i] = fmt.Sprintf("v%d", i+1)
	}
	return strings.Join(cols, ", ")
}

// Insert adds a transaction and returns its assigned id. Returns
// ErrNodeNotFound if node_id violates the foreign key; a failed insert
// writes nothing.
func (s *TransactionStore) Insert(ctx context.Context, t *domain.Transaction) (int64, error) {
	if t == nil || t.NodeID == 0 {
		return 0, storage.ErrInvalidInput
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", domain.FeatureCount+4), ", ")
	query := fmt.Sprintf(`
		INSERT INTO transactions (node_id, time, %s, amount, timestamp)
		VALUES (%s)
	`, featureColumns(), placeholders)

	args := make([]any, 0, domain.FeatureCount+4)
	args = append(args, t.NodeID, nullFloat(t.Time))
	for _, f := range t.Features {
		args = append(args, nullFloat(f))
	}
	args = append(args, nullFloat(t.Amount), nowMillis())

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyError(err) {
			return 0, storage.ErrNodeNotFound
		}
		s.db.countError("insert_transaction", err)
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		s.db.countError("insert_transaction", err)
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}
	return id, nil
}

// Count returns the number of transactions, optionally for one node.
func (s *TransactionStore) Count(ctx context.Context, nodeID *int64) (int64, error) {
	var (
		count int64
		err   error
	)
	if nodeID != nil {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE node_id = ?`, *nodeID).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	}
	if err != nil {
		s.db.countError("count_transactions", err)
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// Recent retrieves up to limit transactions ordered by ingestion time
// descending, joined with the owning node's name.
func (s *TransactionStore) Recent(ctx context.Context, limit int, nodeID *int64) ([]*domain.TransactionWithNode, error) {
	return s.query(ctx, nodeID, limit)
}

// All retrieves the full history ordered by ingestion time descending.
func (s *TransactionStore) All(ctx context.Context, nodeID *int64) ([]*domain.TransactionWithNode, error) {
	return s.query(ctx, nodeID, 0)
}

// query runs the recent/all listing. limit <= 0 means unbounded.
func (s *TransactionStore) query(ctx context.Context, nodeID *int64, limit int) ([]*domain.TransactionWithNode, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `
		SELECT t.id, t.node_id, t.time, %s, t.amount, t.timestamp, COALESCE(n.name, '') AS node_name
		FROM transactions t
		LEFT JOIN fog_nodes n ON t.node_id = n.id
	`, prefixedFeatureColumns("t"))

	var args []any
	if nodeID != nil {
		sb.WriteString(" WHERE t.node_id = ?")
		args = append(args, *nodeID)
	}
	sb.WriteString(" ORDER BY t.timestamp DESC, t.id DESC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		s.db.countError("query_transactions", err)
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.TransactionWithNode
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			s.db.countError("query_transactions", err)
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		s.db.countError("query_transactions", err)
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txs, nil
}

// prefixedFeatureColumns returns "t.v1, t.v2, ..., t.v28".
func prefixedFeatureColumns(prefix string) string {
	cols := make([]string, domain.FeatureCount)
	for i := range cols {
		cols[i] = fmt.Sprintf("%s.v%d", prefix, i+1)
	}
	return strings.Join(cols, ", ")
}

func scanTransaction(sc scanner) (*domain.TransactionWithNode, error) {
	var (
		tx        domain.TransactionWithNode
		timeVal   sql.NullFloat64
		features  [domain.FeatureCount]sql.NullFloat64
		amount    sql.NullFloat64
		timestamp int64
	)

	dest := make([]any, 0, domain.FeatureCount+6)
	dest = append(dest, &tx.ID, &tx.NodeID, &timeVal)
	for i := range features {
		dest = append(dest, &features[i])
	}
	dest = append(dest, &amount, &timestamp, &tx.NodeName)

	if err := sc.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan transaction row: %w", err)
	}

	tx.Time = floatPtr(timeVal)
	for i := range features {
		tx.Features[i] = floatPtr(features[i])
	}
	tx.Amount = floatPtr(amount)
	tx.IngestedAt = millisToTime(timestamp)
	return &tx, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
