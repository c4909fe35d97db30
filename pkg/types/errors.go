package types

import "errors"

// Domain errors shared across the graph, chunker, and search result types.
var (
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrInvalidLines = errors.New("invalid line range for a node with a file path")

	ErrInvalidScore  = errors.New("score must be between 0 and 1")
	ErrEmptyContent  = errors.New("content cannot be empty")
	ErrMissingNodeID = errors.New("node ID is required")
)
