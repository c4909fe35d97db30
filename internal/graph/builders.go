package graph

import (
	"github.com/google/uuid"
	"github.com/hermes-engine/hermes/pkg/types"
)

// NodeBuilder fluently assembles a types.Node with a fresh ID, deferring
// every other field to sensible defaults until set.
type NodeBuilder struct {
	node types.Node
}

// NewNodeBuilder starts a node scoped to projectID with a fresh UUID and
// NodeConcept as its type until overridden.
func NewNodeBuilder(projectID string) *NodeBuilder {
	return &NodeBuilder{node: types.Node{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		NodeType:  types.NodeConcept,
	}}
}

func (b *NodeBuilder) Name(name string) *NodeBuilder {
	b.node.Name = name
	return b
}

func (b *NodeBuilder) NodeType(t types.NodeType) *NodeBuilder {
	b.node.NodeType = t
	return b
}

func (b *NodeBuilder) FilePath(path string) *NodeBuilder {
	b.node.FilePath = path
	return b
}

func (b *NodeBuilder) Lines(start, end int) *NodeBuilder {
	b.node.StartLine = start
	b.node.EndLine = end
	return b
}

func (b *NodeBuilder) Summary(summary string) *NodeBuilder {
	b.node.Summary = summary
	return b
}

func (b *NodeBuilder) ContentHash(hash string) *NodeBuilder {
	b.node.ContentHash = hash
	return b
}

func (b *NodeBuilder) Build() types.Node {
	return b.node
}

// EdgeBuilder fluently assembles a types.Edge with a fresh ID and a default
// depends_on type/weight until overridden.
type EdgeBuilder struct {
	edge types.Edge
}

// NewEdgeBuilder starts an edge scoped to projectID with a fresh UUID.
func NewEdgeBuilder(projectID string) *EdgeBuilder {
	return &EdgeBuilder{edge: types.Edge{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		EdgeType:  types.EdgeDependsOn,
		Weight:    1.0,
	}}
}

func (b *EdgeBuilder) Source(id string) *EdgeBuilder {
	b.edge.SourceID = id
	return b
}

func (b *EdgeBuilder) Target(id string) *EdgeBuilder {
	b.edge.TargetID = id
	return b
}

func (b *EdgeBuilder) EdgeType(t types.EdgeType) *EdgeBuilder {
	b.edge.EdgeType = t
	return b
}

func (b *EdgeBuilder) Weight(w float64) *EdgeBuilder {
	b.edge.Weight = w
	return b
}

func (b *EdgeBuilder) Build() types.Edge {
	return b.edge
}

// CreateNodeBuilder returns a NodeBuilder scoped to the same project as g.
func (g *Graph) CreateNodeBuilder() *NodeBuilder {
	return NewNodeBuilder(g.projectID)
}

// CreateEdgeBuilder returns an EdgeBuilder scoped to the same project as g.
func (g *Graph) CreateEdgeBuilder() *EdgeBuilder {
	return NewEdgeBuilder(g.projectID)
}
