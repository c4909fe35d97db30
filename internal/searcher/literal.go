package searcher

import (
	"context"
	"sort"
	"strings"

	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/pkg/types"
)

const literalResultLimit = 20

// literalSearch runs the L0 tier: an exact/prefix/suffix/substring match over
// node names, scored by how much of the name the query actually covers.
func literalSearch(ctx context.Context, g *graph.Graph, query string) ([]types.SearchResult, error) {
	queryLower := strings.ToLower(query)

	nodes, err := g.LiteralSearchByName(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(nodes))
	for _, node := range nodes {
		score := computeLiteralScore(queryLower, strings.ToLower(node.Name))
		results = append(results, types.SearchResult{
			Node:  node,
			Score: score,
			Tier:  types.TierLiteral,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > literalResultLimit {
		results = results[:literalResultLimit]
	}
	return results, nil
}

// computeLiteralScore scores a node name against a (already lowercased)
// query: 1.0 on equality, 0.9 on exact prefix or suffix, otherwise a
// coverage ratio clamped to [0.5, 0.9].
func computeLiteralScore(query, name string) float64 {
	if name == query {
		return 1.0
	}
	if strings.HasPrefix(name, query) || strings.HasSuffix(name, query) {
		return 0.9
	}

	nameLen := len(name)
	if nameLen == 0 {
		nameLen = 1
	}
	score := 0.5 + (float64(len(query))/float64(nameLen))*0.4
	if score < 0.5 {
		score = 0.5
	}
	if score > 0.9 {
		score = 0.9
	}
	return score
}
