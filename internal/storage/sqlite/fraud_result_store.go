package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage"
)

// FraudResultStore implements storage.FraudResultStore using SQLite.
type FraudResultStore struct {
	db *DB
}

// NewFraudResultStore creates a new FraudResultStore.
func NewFraudResultStore(db *DB) *FraudResultStore {
	return &FraudResultStore{db: db}
}

// Compile-time interface check.
var _ storage.FraudResultStore = (*FraudResultStore)(nil)

// Insert adds a fraud result and returns its assigned id.
func (s *FraudResultStore) Insert(ctx context.Context, r *domain.FraudResult) (int64, error) {
	if r == nil || r.NodeID == 0 {
		return 0, storage.ErrInvalidInput
	}
	if r.Prediction != domain.PredictionLegitimate && r.Prediction != domain.PredictionFraud {
		return 0, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO fraud_results (transaction_id, node_id, time, prediction, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	var txID sql.NullInt64
	if r.TransactionID != nil {
		txID = sql.NullInt64{Int64: *r.TransactionID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query, txID, r.NodeID, nullFloat(r.Time), r.Prediction, nowMillis())
	if err != nil {
		if isForeignKeyError(err) {
			return 0, storage.ErrNodeNotFound
		}
		s.db.countError("insert_fraud_result", err)
		return 0, fmt.Errorf("insert fraud result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		s.db.countError("insert_fraud_result", err)
		return 0, fmt.Errorf("fraud result insert id: %w", err)
	}
	return id, nil
}

// Recent retrieves up to limit results ordered by ingestion time descending,
// joined with the owning node's name.
func (s *FraudResultStore) Recent(ctx context.Context, limit int, nodeID *int64) ([]*domain.FraudResultWithNode, error) {
	return s.query(ctx, nodeID, limit)
}

// All retrieves the full history ordered by ingestion time descending.
func (s *FraudResultStore) All(ctx context.Context, nodeID *int64) ([]*domain.FraudResultWithNode, error) {
	return s.query(ctx, nodeID, 0)
}

func (s *FraudResultStore) query(ctx context.Context, nodeID *int64, limit int) ([]*domain.FraudResultWithNode, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT f.id, f.transaction_id, f.node_id, f.time, f.prediction, f.timestamp, COALESCE(n.name, '') AS node_name
		FROM fraud_results f
		LEFT JOIN fog_nodes n ON f.node_id = n.id
	`)

	var args []any
	if nodeID != nil {
		sb.WriteString(" WHERE f.node_id = ?")
		args = append(args, *nodeID)
	}
	sb.WriteString(" ORDER BY f.timestamp DESC, f.id DESC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		s.db.countError("query_fraud_results", err)
		return nil, fmt.Errorf("query fraud results: %w", err)
	}
	defer rows.Close()

	var results []*domain.FraudResultWithNode
	for rows.Next() {
		var (
			r         domain.FraudResultWithNode
			txID      sql.NullInt64
			timeVal   sql.NullFloat64
			timestamp int64
		)
		if err := rows.Scan(&r.ID, &txID, &r.NodeID, &timeVal, &r.Prediction, &timestamp, &r.NodeName); err != nil {
			s.db.countError("query_fraud_results", err)
			return nil, fmt.Errorf("scan fraud result row: %w", err)
		}
		if txID.Valid {
			v := txID.Int64
			r.TransactionID = &v
		}
		r.Time = floatPtr(timeVal)
		r.IngestedAt = millisToTime(timestamp)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		s.db.countError("query_fraud_results", err)
		return nil, fmt.Errorf("iterate fraud result rows: %w", err)
	}
	return results, nil
}

// Stats returns total, fraud_count and fraud_rate for the scope.
func (s *FraudResultStore) Stats(ctx context.Context, nodeID *int64) (*domain.FraudStats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN prediction = 1 THEN 1 ELSE 0 END), 0) AS fraud_count
		FROM fraud_results
	`
	var args []any
	if nodeID != nil {
		query += " WHERE node_id = ?"
		args = append(args, *nodeID)
	}

	var stats domain.FraudStats
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &stats.FraudCount); err != nil {
		s.db.countError("fraud_stats", err)
		return nil, fmt.Errorf("fraud stats: %w", err)
	}
	if stats.Total > 0 {
		stats.FraudRate = float64(stats.FraudCount) / float64(stats.Total) * 100
	}
	return &stats, nil
}
