package domain

import "time"

// NodeStatus classifies a fog node's liveness as derived from its heartbeat.
type NodeStatus string

// Node status constants
const (
	StatusOnline  NodeStatus = "online"
	StatusWarning NodeStatus = "warning"
	StatusOffline NodeStatus = "offline"
	StatusUnknown NodeStatus = "unknown"
)

// Node is the identity record for a simulated fog device.
// The numeric ID is externally assigned (from config) and stable; the string
// ID is derived from the display name and used to correlate inbound messages.
type Node struct {
	ID          int64
	Name        string
	Location    string
	Description string
	StringID    string     // e.g. "Fog_Node_1", unique and immutable
	Status      NodeStatus // last stored status, authoritative view is derived
	LastSeen    *time.Time // nil until the first message is attributed
	CreatedAt   time.Time
}
