package searcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/hermes-engine/hermes/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *graph.Graph) {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	g := graph.New(store.DB(), "proj1")
	return New(g), g
}

func TestFuseAndRank_DedupeKeepsHighestBoostedScore(t *testing.T) {
	node := types.Node{ID: "n1", Name: "test_fn"}
	results := []types.SearchResult{
		{Node: node, Score: 0.5, Tier: types.TierFTS},
		{Node: node, Score: 0.4, Tier: types.TierLiteral},
	}
	merged := fuseAndRank(results, 10)
	require.Len(t, merged, 1)
	assert.Equal(t, types.TierLiteral, merged[0].Tier)
	assert.Equal(t, 0.4, merged[0].Score)
}

func TestFuseAndRank_SortsByRawScoreDescending(t *testing.T) {
	a := types.Node{ID: "a", Name: "a"}
	b := types.Node{ID: "b", Name: "b"}
	results := []types.SearchResult{
		{Node: a, Score: 0.3, Tier: types.TierVector},
		{Node: b, Score: 0.8, Tier: types.TierVector},
	}
	merged := fuseAndRank(results, 10)
	require.Len(t, merged, 2)
	assert.Equal(t, "b", merged[0].Node.ID)
}

func TestFuseAndRank_TruncatesToTopK(t *testing.T) {
	var results []types.SearchResult
	for i := 0; i < 5; i++ {
		results = append(results, types.SearchResult{
			Node:  types.Node{ID: string(rune('a' + i)), Name: string(rune('a' + i))},
			Score: float64(i) / 10,
			Tier:  types.TierVector,
		})
	}
	merged := fuseAndRank(results, 2)
	assert.Len(t, merged, 2)
}

func TestSearch_CacheHitReturnsSameResponse(t *testing.T) {
	e, g := newTestEngine(t)
	ctx := context.Background()
	n := insertTestNode(t, g, "n1", "fetch_alerts", "src/api.go")
	_ = n

	first, err := e.Search(ctx, "fetch_alerts", 5)
	require.NoError(t, err)

	second, err := e.Search(ctx, "FETCH_ALERTS", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearch_FindsLiterallyMatchingNode(t *testing.T) {
	e, g := newTestEngine(t)
	ctx := context.Background()
	insertTestNode(t, g, "n1", "process_payment", "src/pay.go")

	resp, err := e.Search(ctx, "process_payment", 5)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Pointers)
	assert.Equal(t, "n1", resp.Pointers[0].ID)
}

func TestSearch_NoMatchesReturnsEmptyPointers(t *testing.T) {
	e, g := newTestEngine(t)
	insertTestNode(t, g, "n1", "something", "src/a.go")

	resp, err := e.Search(context.Background(), "completely_unrelated_zzz_query", 5)
	require.NoError(t, err)
	assert.Empty(t, resp.Pointers)
	assert.Equal(t, 0.0, resp.Accounting.SavingsPct)
}

func TestFetch_MissingNodeReturnsNotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	resp, found, err := e.Fetch(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, resp)
}

func TestFetch_ReadsFileSlice(t *testing.T) {
	e, g := newTestEngine(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("line1\nline2\nline3\nline4\n"), 0o644))

	n := types.Node{ID: "n1", ProjectID: g.ProjectID(), Name: "fn", NodeType: types.NodeFunction, FilePath: path, StartLine: 2, EndLine: 3}
	require.NoError(t, g.AddNode(context.Background(), &n))

	resp, found, err := e.Fetch(context.Background(), "n1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "line2\nline3", resp.Content)
}

func TestFetch_MissingFileReturnsPlaceholder(t *testing.T) {
	e, g := newTestEngine(t)
	n := types.Node{ID: "n1", ProjectID: g.ProjectID(), Name: "fn", NodeType: types.NodeFunction, FilePath: "/nonexistent/path.go", StartLine: 1, EndLine: 2}
	require.NoError(t, g.AddNode(context.Background(), &n))

	resp, found, err := e.Fetch(context.Background(), "n1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, resp.Content, "[File not found:")
}

func TestFetch_OutOfRangeLinesAreClamped(t *testing.T) {
	e, g := newTestEngine(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("line1\nline2\n"), 0o644))

	n := types.Node{ID: "n1", ProjectID: g.ProjectID(), Name: "fn", NodeType: types.NodeFunction, FilePath: path, StartLine: 1, EndLine: 999}
	require.NoError(t, g.AddNode(context.Background(), &n))

	resp, found, err := e.Fetch(context.Background(), "n1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "line1\nline2", resp.Content)
}

func TestFetch_TokenCountReflectsContentLength(t *testing.T) {
	e, g := newTestEngine(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("one two three four\n"), 0o644))

	n := types.Node{ID: "n1", ProjectID: g.ProjectID(), Name: "fn", NodeType: types.NodeFunction, FilePath: path, StartLine: 1, EndLine: 1}
	require.NoError(t, g.AddNode(context.Background(), &n))

	resp, found, err := e.Fetch(context.Background(), "n1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Greater(t, resp.TokenCount, uint64(0))
}
