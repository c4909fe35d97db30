// Package graph implements the knowledge graph: typed, project-scoped nodes
// and edges backed by SQLite, with FTS index maintenance folded in since the
// FTS row's lifecycle is tied one-to-one to its node's.
package graph

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/hermes-engine/hermes/pkg/types"
)

// Graph is a project-scoped view over the shared store's nodes, edges, and
// FTS rows. It holds no state of its own; every method runs a query against
// the querier it was constructed with.
type Graph struct {
	q         storage.Querier
	projectID string
}

// New returns a Graph scoped to projectID, running queries against q (either
// the store's *sql.DB directly, or a *sql.Tx for transactional callers).
func New(q storage.Querier, projectID string) *Graph {
	return &Graph{q: q, projectID: projectID}
}

// ProjectID returns the project this graph is scoped to.
func (g *Graph) ProjectID() string {
	return g.projectID
}

// AddNode upserts a node by ID. On conflict every column is refreshed except
// created_at, which the schema's default leaves untouched since it is never
// named in the UPDATE SET clause.
func (g *Graph) AddNode(ctx context.Context, n *types.Node) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := g.q.ExecContext(ctx, `
		INSERT INTO nodes (id, project_id, name, node_type, file_path, start_line, end_line, summary, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			node_type = excluded.node_type,
			file_path = excluded.file_path,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			summary = excluded.summary,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, n.ID, n.ProjectID, n.Name, string(n.NodeType), nullableString(n.FilePath),
		nullableInt(n.StartLine), nullableInt(n.EndLine), nullableString(n.Summary),
		nullableString(n.ContentHash), now)
	if err != nil {
		return fmt.Errorf("add node: %w", err)
	}
	n.UpdatedAt, _ = time.Parse(time.RFC3339, now)
	return nil
}

// GetNode returns the node by ID, or (nil, nil) if it doesn't exist.
func (g *Graph) GetNode(ctx context.Context, id string) (*types.Node, error) {
	row := g.q.QueryRowContext(ctx, `
		SELECT id, project_id, name, node_type, file_path, start_line, end_line, summary, content_hash
		FROM nodes WHERE id = ? AND project_id = ?
	`, id, g.projectID)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

// AddEdge inserts the edge if it doesn't already exist; idempotent by ID.
func (g *Graph) AddEdge(ctx context.Context, e *types.Edge) error {
	_, err := g.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO edges (id, project_id, source_id, target_id, edge_type, weight)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.SourceID, e.TargetID, string(e.EdgeType), e.Weight)
	if err != nil {
		return fmt.Errorf("add edge: %w", err)
	}
	return nil
}

// GetNeighbors returns every edge touching id, each paired with the node at
// its other endpoint resolved in the same query.
func (g *Graph) GetNeighbors(ctx context.Context, id string) ([]types.Neighbor, error) {
	rows, err := g.q.QueryContext(ctx, `
		SELECT e.id, e.project_id, e.source_id, e.target_id, e.edge_type, e.weight,
		       n.id, n.project_id, n.name, n.node_type, n.file_path, n.start_line, n.end_line, n.summary, n.content_hash
		FROM edges e
		JOIN nodes n ON n.id = CASE WHEN e.source_id = ? THEN e.target_id ELSE e.source_id END
		WHERE (e.source_id = ? OR e.target_id = ?) AND e.project_id = ?
	`, id, id, id, g.projectID)
	if err != nil {
		return nil, fmt.Errorf("get neighbors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Neighbor
	for rows.Next() {
		var (
			edge                  types.Edge
			edgeType              string
			node                  types.Node
			nodeType              string
			filePath, summary, contentHash sql.NullString
			startLine, endLine    sql.NullInt64
		)
		if err := rows.Scan(
			&edge.ID, &edge.ProjectID, &edge.SourceID, &edge.TargetID, &edgeType, &edge.Weight,
			&node.ID, &node.ProjectID, &node.Name, &nodeType, &filePath, &startLine, &endLine, &summary, &contentHash,
		); err != nil {
			return nil, fmt.Errorf("get neighbors: scan: %w", err)
		}
		edge.EdgeType = types.ParseEdgeType(edgeType)
		node.NodeType = types.ParseNodeType(nodeType)
		node.FilePath = filePath.String
		node.StartLine = int(startLine.Int64)
		node.EndLine = int(endLine.Int64)
		node.Summary = summary.String
		node.ContentHash = contentHash.String
		out = append(out, types.Neighbor{Edge: edge, Other: node})
	}
	return out, rows.Err()
}

// IndexFTS replaces the node's FTS row atomically (delete then insert).
func (g *Graph) IndexFTS(ctx context.Context, n *types.Node, content string) error {
	if _, err := g.q.ExecContext(ctx, `DELETE FROM fts_content WHERE node_id = ?`, n.ID); err != nil {
		return fmt.Errorf("index fts: delete: %w", err)
	}
	_, err := g.q.ExecContext(ctx, `
		INSERT INTO fts_content (node_id, project_id, name, content, file_path)
		VALUES (?, ?, ?, ?, ?)
	`, n.ID, n.ProjectID, n.Name, content, nullableString(n.FilePath))
	if err != nil {
		return fmt.Errorf("index fts: insert: %w", err)
	}
	return nil
}

// LiteralSearchByName returns nodes whose lowercased name begins with
// q.lowercase(); if none match, falls back to nodes whose lowercased name
// merely contains it. The two phases never mix.
func (g *Graph) LiteralSearchByName(ctx context.Context, query string) ([]types.Node, error) {
	lower := strings.ToLower(query)

	prefix, err := g.queryNodesByNamePattern(ctx, lower+"%")
	if err != nil {
		return nil, fmt.Errorf("literal search: prefix: %w", err)
	}
	if len(prefix) > 0 {
		return prefix, nil
	}

	contains, err := g.queryNodesByNamePattern(ctx, "%"+lower+"%")
	if err != nil {
		return nil, fmt.Errorf("literal search: contains: %w", err)
	}
	return contains, nil
}

func (g *Graph) queryNodesByNamePattern(ctx context.Context, pattern string) ([]types.Node, error) {
	rows, err := g.q.QueryContext(ctx, `
		SELECT id, project_id, name, node_type, file_path, start_line, end_line, summary, content_hash
		FROM nodes WHERE project_id = ? AND LOWER(name) LIKE ?
	`, g.projectID, pattern)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanNodes(rows)
}

// GetAllNodes returns every node in the project. The vector tier uses this
// for its full scan since there is no index over the hash-based embedding.
func (g *Graph) GetAllNodes(ctx context.Context) ([]types.Node, error) {
	rows, err := g.q.QueryContext(ctx, `
		SELECT id, project_id, name, node_type, file_path, start_line, end_line, summary, content_hash
		FROM nodes WHERE project_id = ?
	`, g.projectID)
	if err != nil {
		return nil, fmt.Errorf("get all nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanNodes(rows)
}

// GetAllFilePaths returns the distinct, non-empty file paths referenced by
// the project's nodes. Ingestion's stale-node sweep diffs this against the
// current crawl.
func (g *Graph) GetAllFilePaths(ctx context.Context) ([]string, error) {
	rows, err := g.q.QueryContext(ctx, `
		SELECT DISTINCT file_path FROM nodes
		WHERE project_id = ? AND file_path IS NOT NULL AND file_path != ''
	`, g.projectID)
	if err != nil {
		return nil, fmt.Errorf("get all file paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("get all file paths: scan: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteNodesForFile removes, in order, the FTS rows for nodes at path, the
// edges touching them, and finally the nodes themselves.
func (g *Graph) DeleteNodesForFile(ctx context.Context, filePath string) error {
	if _, err := g.q.ExecContext(ctx, `
		DELETE FROM fts_content WHERE node_id IN
			(SELECT id FROM nodes WHERE file_path = ? AND project_id = ?)
	`, filePath, g.projectID); err != nil {
		return fmt.Errorf("delete nodes for file: fts: %w", err)
	}

	if _, err := g.q.ExecContext(ctx, `
		DELETE FROM edges WHERE
			source_id IN (SELECT id FROM nodes WHERE file_path = ? AND project_id = ?)
			OR target_id IN (SELECT id FROM nodes WHERE file_path = ? AND project_id = ?)
	`, filePath, g.projectID, filePath, g.projectID); err != nil {
		return fmt.Errorf("delete nodes for file: edges: %w", err)
	}

	if _, err := g.q.ExecContext(ctx, `
		DELETE FROM nodes WHERE file_path = ? AND project_id = ?
	`, filePath, g.projectID); err != nil {
		return fmt.Errorf("delete nodes for file: nodes: %w", err)
	}

	return nil
}

// FTSSearch returns up to limit (node, rank) pairs matching query, ordered by
// BM25 ascending — smaller is better; callers normalize before fusing with
// other tiers.
func (g *Graph) FTSSearch(ctx context.Context, query string, limit int) ([]NodeRank, error) {
	rows, err := g.q.QueryContext(ctx, `
		SELECT n.id, n.project_id, n.name, n.node_type, n.file_path, n.start_line, n.end_line, n.summary, n.content_hash,
		       bm25(fts_content) as rank
		FROM fts_content f
		JOIN nodes n ON n.id = f.node_id
		WHERE fts_content MATCH ? AND f.project_id = ?
		ORDER BY rank
		LIMIT ?
	`, query, g.projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []NodeRank
	for rows.Next() {
		var (
			node                            types.Node
			nodeType                        string
			filePath, summary, contentHash sql.NullString
			startLine, endLine              sql.NullInt64
			rank                            float64
		)
		if err := rows.Scan(
			&node.ID, &node.ProjectID, &node.Name, &nodeType, &filePath, &startLine, &endLine, &summary, &contentHash, &rank,
		); err != nil {
			return nil, fmt.Errorf("fts search: scan: %w", err)
		}
		node.NodeType = types.ParseNodeType(nodeType)
		node.FilePath = filePath.String
		node.StartLine = int(startLine.Int64)
		node.EndLine = int(endLine.Int64)
		node.Summary = summary.String
		node.ContentHash = contentHash.String
		out = append(out, NodeRank{Node: node, Rank: rank})
	}
	return out, rows.Err()
}

// NodeRank pairs a node with its BM25 rank from an FTS search.
type NodeRank struct {
	Node types.Node
	Rank float64
}

func scanNode(row *sql.Row) (*types.Node, error) {
	var (
		n                                types.Node
		nodeType                         string
		filePath, summary, contentHash  sql.NullString
		startLine, endLine               sql.NullInt64
	)
	if err := row.Scan(&n.ID, &n.ProjectID, &n.Name, &nodeType, &filePath, &startLine, &endLine, &summary, &contentHash); err != nil {
		return nil, err
	}
	n.NodeType = types.ParseNodeType(nodeType)
	n.FilePath = filePath.String
	n.StartLine = int(startLine.Int64)
	n.EndLine = int(endLine.Int64)
	n.Summary = summary.String
	n.ContentHash = contentHash.String
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]types.Node, error) {
	var out []types.Node
	for rows.Next() {
		var (
			n                                types.Node
			nodeType                         string
			filePath, summary, contentHash  sql.NullString
			startLine, endLine               sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.Name, &nodeType, &filePath, &startLine, &endLine, &summary, &contentHash); err != nil {
			return nil, err
		}
		n.NodeType = types.ParseNodeType(nodeType)
		n.FilePath = filePath.String
		n.StartLine = int(startLine.Int64)
		n.EndLine = int(endLine.Int64)
		n.Summary = summary.String
		n.ContentHash = contentHash.String
		out = append(out, n)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
