package memory

import (
	"context"
	"sort"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage"
)

// NodeStore is the in-memory implementation of storage.NodeStore.
type NodeStore struct {
	s *Store
}

// Compile-time interface check.
var _ storage.NodeStore = (*NodeStore)(nil)

// Upsert inserts a node or updates its mutable fields keyed on the numeric id.
func (ns *NodeStore) Upsert(_ context.Context, n *domain.Node) error {
	if n == nil || n.ID == 0 || n.Name == "" {
		return storage.ErrInvalidInput
	}

	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()

	if existing, ok := ns.s.nodes[n.ID]; ok {
		existing.Name = n.Name
		existing.Location = n.Location
		existing.Description = n.Description
		existing.StringID = n.StringID
		return nil
	}

	copy := *n
	if copy.Status == "" {
		copy.Status = domain.StatusOffline
	}
	copy.CreatedAt = ns.s.now()
	ns.s.nodes[n.ID] = &copy
	return nil
}

// GetByStringID retrieves a node by its textual identifier.
func (ns *NodeStore) GetByStringID(_ context.Context, stringID string) (*domain.Node, error) {
	ns.s.mu.RLock()
	defer ns.s.mu.RUnlock()

	for _, n := range ns.s.nodes {
		if n.StringID == stringID {
			copy := *n
			return &copy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetByID retrieves a node by numeric id.
func (ns *NodeStore) GetByID(_ context.Context, id int64) (*domain.Node, error) {
	ns.s.mu.RLock()
	defer ns.s.mu.RUnlock()

	n, ok := ns.s.nodes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *n
	return &copy, nil
}

// List retrieves all nodes ordered by id.
func (ns *NodeStore) List(_ context.Context) ([]*domain.Node, error) {
	ns.s.mu.RLock()
	defer ns.s.mu.RUnlock()

	nodes := make([]*domain.Node, 0, len(ns.s.nodes))
	for _, n := range ns.s.nodes {
		copy := *n
		nodes = append(nodes, &copy)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}

// Touch sets the node's status and refreshes last_seen. No-op on unknown id.
func (ns *NodeStore) Touch(_ context.Context, id int64, status domain.NodeStatus) error {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()

	n, ok := ns.s.nodes[id]
	if !ok {
		return nil
	}
	now := ns.s.now()
	n.Status = status
	n.LastSeen = &now
	return nil
}
