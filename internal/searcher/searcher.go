package searcher

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hermes-engine/hermes/internal/accounting"
	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/pkg/types"
)

const (
	shortCircuitSkipAll = 0.9
	shortCircuitSkipL2  = 0.8
)

func tierBonus(tier types.SearchTier) float64 {
	switch tier {
	case types.TierLiteral:
		return 0.3
	case types.TierFTS:
		return 0.1
	default:
		return 0.0
	}
}

// Engine fuses the three search tiers into ranked pointers, caching both
// search responses and fetched file content across calls.
type Engine struct {
	graph         *graph.Graph
	vectorEncoder VectorEncoder
	results       *resultCache
	fetches       *fetchCache
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithVectorEncoder substitutes the default hash-based L2 encoder with one
// backed by a real embedding provider. The cosine-similarity code path is
// unchanged either way.
func WithVectorEncoder(enc VectorEncoder) Option {
	return func(e *Engine) { e.vectorEncoder = enc }
}

// New returns an Engine scoped to g.
func New(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:         g,
		vectorEncoder: hashEncoder{},
		results:       newResultCache(),
		fetches:       newFetchCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search fuses the three tiers for query and returns the top topK pointers
// with their accounting. Identical (query, topK) pairs hit the result cache
// for up to searchCacheTTL.
func (e *Engine) Search(ctx context.Context, query string, topK int) (types.PointerResponse, error) {
	cacheKey := strings.ToLower(strings.TrimSpace(query)) + ":" + strconv.Itoa(topK)
	if cached, ok := e.results.get(cacheKey); ok {
		return cached, nil
	}

	l0, err := literalSearch(ctx, e.graph, query)
	if err != nil {
		return types.PointerResponse{}, fmt.Errorf("search: literal: %w", err)
	}

	all := append([]types.SearchResult{}, l0...)

	if len(l0) >= topK && topK > 0 {
		minScore := l0[topK-1].Score

		switch {
		case minScore >= shortCircuitSkipAll:
			resp := e.finish(cacheKey, all, topK)
			return resp, nil

		case minScore >= shortCircuitSkipL2:
			l1, err := ftsSearch(ctx, e.graph, query)
			if err != nil {
				return types.PointerResponse{}, fmt.Errorf("search: fts: %w", err)
			}
			all = append(all, l1...)
			resp := e.finish(cacheKey, all, topK)
			return resp, nil
		}
	}

	l1, err := ftsSearch(ctx, e.graph, query)
	if err != nil {
		return types.PointerResponse{}, fmt.Errorf("search: fts: %w", err)
	}
	all = append(all, l1...)

	l2, err := vectorSearch(ctx, e.graph, query, e.vectorEncoder)
	if err != nil {
		return types.PointerResponse{}, fmt.Errorf("search: vector: %w", err)
	}
	all = append(all, l2...)

	resp := e.finish(cacheKey, all, topK)
	return resp, nil
}

func (e *Engine) finish(cacheKey string, all []types.SearchResult, topK int) types.PointerResponse {
	merged := fuseAndRank(all, topK)
	resp := accounting.BuildPointerResponse(resultsToPointers(merged), 0)
	e.results.put(cacheKey, resp)
	return resp
}

// fuseAndRank deduplicates by node ID, keeping whichever tier's boosted
// score (raw score plus tier bonus) is highest for that node — while
// preserving that result's own raw score and tier — then sorts the
// survivors by raw score descending and truncates to topK.
func fuseAndRank(results []types.SearchResult, topK int) []types.SearchResult {
	best := make(map[string]types.SearchResult, len(results))
	boosted := make(map[string]float64, len(results))

	for _, r := range results {
		b := r.Score + tierBonus(r.Tier)
		if _, ok := best[r.Node.ID]; !ok || b > boosted[r.Node.ID] {
			best[r.Node.ID] = r
			boosted[r.Node.ID] = b
		}
	}

	merged := make([]types.SearchResult, 0, len(best))
	for _, r := range best {
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

func resultsToPointers(results []types.SearchResult) []types.Pointer {
	pointers := make([]types.Pointer, 0, len(results))
	for _, r := range results {
		pointers = append(pointers, types.Pointer{
			ID:        r.Node.ID,
			Source:    r.Node.FilePath,
			Chunk:     r.Node.Name,
			Lines:     fmt.Sprintf("%d-%d", r.Node.StartLine, r.Node.EndLine),
			Relevance: r.Score,
			Summary:   r.Node.Summary,
			NodeType:  string(r.Node.NodeType),
		})
	}
	return pointers
}

// InvalidateCaches drops every cached search result and fetched content
// slice. The ingestion pipeline calls this after every completed run, since
// a cached response can otherwise outlive the graph state it was computed
// from.
func (e *Engine) InvalidateCaches() {
	e.results.clear()
	e.fetches.clear()
}

// Fetch loads the full content backing pointerID's node. A nil, false
// return means the node doesn't exist; a missing backing file is not an
// error, it produces a synthetic placeholder body instead.
func (e *Engine) Fetch(ctx context.Context, pointerID string) (*types.FetchResponse, bool, error) {
	node, err := e.graph.GetNode(ctx, pointerID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch: %w", err)
	}
	if node == nil {
		return nil, false, nil
	}

	key := fetchKey(node.FilePath, node.StartLine, node.EndLine)
	content, ok := e.fetches.get(key)
	if !ok {
		content = readNodeContent(*node)
		e.fetches.put(key, content)
	}

	return &types.FetchResponse{
		PointerID:  node.ID,
		Content:    content,
		FilePath:   node.FilePath,
		StartLine:  node.StartLine,
		EndLine:    node.EndLine,
		TokenCount: accounting.EstimateTokens(content),
	}, true, nil
}

func readNodeContent(node types.Node) string {
	if node.FilePath == "" {
		return ""
	}

	data, err := os.ReadFile(node.FilePath)
	if err != nil {
		return fmt.Sprintf("[File not found: %s]", node.FilePath)
	}
	content := string(data)

	if node.EndLine == 0 {
		return content
	}

	start := node.StartLine
	if start < 1 {
		start = 1
	}
	end := node.EndLine

	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	startIdx := start - 1
	if startIdx > len(lines) {
		startIdx = len(lines)
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := end
	if endIdx > len(lines) {
		endIdx = len(lines)
	}
	if endIdx < startIdx {
		endIdx = startIdx
	}
	return strings.Join(lines[startIdx:endIdx], "\n")
}
