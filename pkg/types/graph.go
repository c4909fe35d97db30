package types

import "time"

// NodeType is a closed enumeration of the kinds of things a Node can
// represent in the graph. Unknown strings parsed from storage fall back to
// Concept rather than erroring — see ParseNodeType.
type NodeType string

const (
	NodeFile     NodeType = "file"
	NodeModule   NodeType = "module"
	NodeFunction NodeType = "function"
	NodeStruct   NodeType = "struct"
	NodeImpl     NodeType = "impl"
	NodeTrait    NodeType = "trait"
	NodeEnum     NodeType = "enum"
	NodeConcept  NodeType = "concept"
	NodeDocument NodeType = "document"
)

// ParseNodeType coerces an arbitrary string into a NodeType, falling back to
// NodeConcept when it doesn't match a known variant.
func ParseNodeType(s string) NodeType {
	switch NodeType(s) {
	case NodeFile, NodeModule, NodeFunction, NodeStruct, NodeImpl, NodeTrait, NodeEnum, NodeConcept, NodeDocument:
		return NodeType(s)
	default:
		return NodeConcept
	}
}

// EdgeType is a closed enumeration of relationships between two nodes.
type EdgeType string

const (
	EdgeCalls      EdgeType = "calls"
	EdgeImports    EdgeType = "imports"
	EdgeImplements EdgeType = "implements"
	EdgeDependsOn  EdgeType = "depends_on"
	EdgeContains   EdgeType = "contains"
	EdgeDocuments  EdgeType = "documents"
)

// ParseEdgeType coerces an arbitrary string into an EdgeType, falling back to
// EdgeDependsOn for anything unrecognized.
func ParseEdgeType(s string) EdgeType {
	switch EdgeType(s) {
	case EdgeCalls, EdgeImports, EdgeImplements, EdgeDependsOn, EdgeContains, EdgeDocuments:
		return EdgeType(s)
	default:
		return EdgeDependsOn
	}
}

// Node is a single vertex in the knowledge graph, scoped to a project.
//
// If FilePath is empty the node is a synthetic concept with no fetchable
// content; a non-zero line range implies FilePath is set.
type Node struct {
	ID          string
	ProjectID   string
	Name        string
	NodeType    NodeType
	FilePath    string
	StartLine   int
	EndLine     int
	Summary     string
	ContentHash string
	UpdatedAt   time.Time
}

// HasLocation reports whether the node points at a fetchable file region.
func (n *Node) HasLocation() bool {
	return n.FilePath != "" && n.StartLine >= 1 && n.EndLine >= n.StartLine
}

// Validate checks the invariants a Node must satisfy before it can be
// persisted: a non-empty name, and — when a file path is present — a
// well-formed line range.
func (n *Node) Validate() error {
	if n.Name == "" {
		return ErrEmptyName
	}
	if n.FilePath != "" && (n.StartLine < 1 || n.EndLine < n.StartLine) {
		return ErrInvalidLines
	}
	return nil
}

// Edge is a directed, weighted relationship between two nodes. Upserts are
// idempotent by ID; edges are never implicitly deleted except by cascade when
// an endpoint is removed.
type Edge struct {
	ID        string
	ProjectID string
	SourceID  string
	TargetID  string
	EdgeType  EdgeType
	Weight    float64
}

// Neighbor pairs an edge with the node at its other endpoint, as returned by
// a single joined query rather than two round-trips.
type Neighbor struct {
	Edge  Edge
	Other Node
}
