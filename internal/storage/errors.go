package storage

import "errors"

// Storage errors shared by all implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNodeNotFound is returned when an insert references a node id that
	// does not exist (foreign-key violation). The failed operation leaves
	// the store unchanged.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
