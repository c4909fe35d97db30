package searcher

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/hermes-engine/hermes/pkg/types"
)

const (
	vectorDimension = 256
	vectorLimit     = 20
	vectorMinScore  = 0.20
)

// VectorEncoder turns a set of tokens into a fixed-dimension vector. The
// default hashEncoder is always available offline; an external embedding
// provider can be substituted via WithVectorEncoder without touching the
// cosine-similarity scoring code path.
type VectorEncoder interface {
	Encode(tokens []string) []float32
}

// hashEncoder buckets each token into one of vectorDimension bins via a
// stable hash, then L2-normalizes — a degraded, offline stand-in for a real
// embedding when no provider is configured.
type hashEncoder struct{}

func (hashEncoder) Encode(tokens []string) []float32 {
	vec := make([]float32, vectorDimension)
	for _, tok := range tokens {
		idx := stableHash(tok) % vectorDimension
		vec[idx]++
	}
	normalizeL2(vec)
	return vec
}

// vectorSearch runs the L2 tier: cosine similarity between a hashed (or
// provider-supplied) query vector and the same encoding of every node's
// combined name/summary/path text.
func vectorSearch(ctx context.Context, g *graph.Graph, query string, encoder VectorEncoder) ([]types.SearchResult, error) {
	queryTokens := tokenizeVector(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}
	queryVec := encoder.Encode(queryTokens)

	nodes, err := g.GetAllNodes(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(nodes))
	for _, node := range nodes {
		tokens := tokenizeVector(combinedNodeText(node))
		if len(tokens) == 0 {
			continue
		}
		nodeVec := encoder.Encode(tokens)
		score := storage.CosineSimilarity(queryVec, nodeVec)
		if score < vectorMinScore {
			continue
		}
		results = append(results, types.SearchResult{
			Node:  node,
			Score: score,
			Tier:  types.TierVector,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > vectorLimit {
		results = results[:vectorLimit]
	}
	return results, nil
}

func combinedNodeText(n types.Node) string {
	return n.Name + " " + n.Summary + " " + n.FilePath
}

// tokenizeVector splits on any non-word character, lowercases, and drops
// tokens of length 1 or shorter.
func tokenizeVector(s string) []string {
	var tokens []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 1 {
			tokens = append(tokens, strings.ToLower(buf.String()))
		}
		buf.Reset()
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			buf.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func stableHash(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32())
}

func normalizeL2(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSquares)
	if norm < 1e-9 {
		return
	}
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
}
