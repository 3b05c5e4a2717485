package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage"
)

// NodeStore implements storage.NodeStore using SQLite.
type NodeStore struct {
	db *DB
}

// NewNodeStore creates a new NodeStore.
func NewNodeStore(db *DB) *NodeStore {
	return &NodeStore{db: db}
}

// Compile-time interface check.
var _ storage.NodeStore = (*NodeStore)(nil)

// Upsert inserts a node or updates its mutable fields keyed on the numeric id.
func (s *NodeStore) Upsert(ctx context.Context, n *domain.Node) error {
	if n == nil || n.ID == 0 || n.Name == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO fog_nodes (id, name, location, description, node_string_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			location = excluded.location,
			description = excluded.description,
			node_string_id = excluded.node_string_id
	`

	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.Name, n.Location, n.Description, n.StringID, nowMillis())
	if err != nil {
		s.db.countError("upsert_node", err)
		return fmt.Errorf("upsert node: %w", err)
	}
	return nil
}

// GetByStringID retrieves a node by its textual identifier.
func (s *NodeStore) GetByStringID(ctx context.Context, stringID string) (*domain.Node, error) {
	query := `
		SELECT id, name, location, description, node_string_id, status, last_seen, created_at
		FROM fog_nodes
		WHERE node_string_id = ?
	`
	n, err := s.scanOne(s.db.QueryRowContext(ctx, query, stringID))
	s.db.countError("get_node", err)
	return n, err
}

// GetByID retrieves a node by numeric id.
func (s *NodeStore) GetByID(ctx context.Context, id int64) (*domain.Node, error) {
	query := `
		SELECT id, name, location, description, node_string_id, status, last_seen, created_at
		FROM fog_nodes
		WHERE id = ?
	`
	n, err := s.scanOne(s.db.QueryRowContext(ctx, query, id))
	s.db.countError("get_node", err)
	return n, err
}

// List retrieves all nodes ordered by id.
func (s *NodeStore) List(ctx context.Context) ([]*domain.Node, error) {
	query := `
		SELECT id, name, location, description, node_string_id, status, last_seen, created_at
		FROM fog_nodes
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.db.countError("list_nodes", err)
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			s.db.countError("list_nodes", err)
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		s.db.countError("list_nodes", err)
		return nil, fmt.Errorf("iterate node rows: %w", err)
	}
	return nodes, nil
}

// Touch sets the node's status and refreshes last_seen to the current time.
// A silent no-op when the id is unknown.
func (s *NodeStore) Touch(ctx context.Context, id int64, status domain.NodeStatus) error {
	query := `UPDATE fog_nodes SET status = ?, last_seen = ? WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query, string(status), nowMillis(), id); err != nil {
		s.db.countError("touch_node", err)
		return fmt.Errorf("touch node status: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func (s *NodeStore) scanOne(row *sql.Row) (*domain.Node, error) {
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func scanNode(sc scanner) (*domain.Node, error) {
	var (
		n         domain.Node
		location  sql.NullString
		desc      sql.NullString
		stringID  sql.NullString
		lastSeen  sql.NullInt64
		createdAt int64
	)

	err := sc.Scan(&n.ID, &n.Name, &location, &desc, &stringID, (*string)(&n.Status), &lastSeen, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan node row: %w", err)
	}

	n.Location = location.String
	n.Description = desc.String
	n.StringID = stringID.String
	if lastSeen.Valid {
		t := millisToTime(lastSeen.Int64)
		n.LastSeen = &t
	}
	n.CreatedAt = millisToTime(createdAt)
	return &n, nil
}
