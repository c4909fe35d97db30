package searcher

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/pkg/types"
)

const (
	ftsResultLimit   = 20
	ftsMinStrategyHits = 3
	ftsMaxQueryTokens  = 10
)

// ftsSearch runs the L1 tier: BM25 full-text search via three query
// strategies of decreasing precision, stopping at the first that clears
// ftsMinStrategyHits.
func ftsSearch(ctx context.Context, g *graph.Graph, query string) ([]types.SearchResult, error) {
	tokens := tokenizeFTSQuery(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	phrase := fmt.Sprintf(`"%s"`, strings.Join(tokens, " "))
	if results, err := runFTSStrategy(ctx, g, phrase); err != nil {
		return nil, err
	} else if len(results) >= ftsMinStrategyHits {
		return results, nil
	}

	andPrefixes := make([]string, len(tokens))
	for i, tok := range tokens {
		andPrefixes[i] = fmt.Sprintf(`"%s"*`, tok)
	}
	andQuery := strings.Join(andPrefixes, " AND ")
	if results, err := runFTSStrategy(ctx, g, andQuery); err != nil {
		return nil, err
	} else if len(results) >= ftsMinStrategyHits {
		return results, nil
	}

	orTerms := make([]string, len(tokens))
	for i, tok := range tokens {
		orTerms[i] = fmt.Sprintf(`"%s"`, tok)
	}
	orQuery := strings.Join(orTerms, " OR ")
	return runFTSStrategy(ctx, g, orQuery)
}

func runFTSStrategy(ctx context.Context, g *graph.Graph, matchQuery string) ([]types.SearchResult, error) {
	ranked, err := g.FTSSearch(ctx, matchQuery, ftsResultLimit)
	if err != nil {
		return nil, err
	}
	results := make([]types.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, types.SearchResult{
			Node:  r.Node,
			Score: normalizeBM25Score(r.Rank),
			Tier:  types.TierFTS,
		})
	}
	return results, nil
}

// tokenizeFTSQuery extracts up to ftsMaxQueryTokens tokens from query: runs
// of letters/digits/underscore form one token each; CJK characters
// (Hiragana, Katakana, CJK Unified and Extension A, CJK Compatibility,
// Hangul Syllables) are each their own token; FTS reserved words are
// dropped.
func tokenizeFTSQuery(query string) []string {
	var tokens []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}

	for _, r := range query {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			buf.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	var filtered []string
	for _, t := range tokens {
		if isFTSOperator(t) {
			continue
		}
		filtered = append(filtered, t)
		if len(filtered) >= ftsMaxQueryTokens {
			break
		}
	}
	return filtered
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x309F: // Hiragana
		return true
	case r >= 0x30A0 && r <= 0x30FF: // Katakana
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Unified Ideographs Extension A
		return true
	case r >= 0xF900 && r <= 0xFAFF: // CJK Compatibility Ideographs
		return true
	case r >= 0xAC00 && r <= 0xD7A3: // Hangul Syllables
		return true
	default:
		return false
	}
}

func isFTSOperator(token string) bool {
	switch strings.ToUpper(token) {
	case "AND", "OR", "NOT", "NEAR":
		return true
	default:
		return false
	}
}

// normalizeBM25Score maps a raw (negative-leaning) BM25 rank into [0,1]: a
// rank near zero (a degenerate match) yields the flat fallback 0.5 rather
// than collapsing to 0.
func normalizeBM25Score(rank float64) float64 {
	absRank := math.Abs(rank)
	if absRank < 0.001 {
		return 0.5
	}
	score := 1.0 - 1.0/(1.0+absRank)
	if score > 1.0 {
		score = 1.0
	}
	return score
}
