package accounting

import (
	"testing"

	"github.com/hermes-engine/hermes/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestEstimatePointerTokens_InExpectedRange(t *testing.T) {
	p := types.Pointer{
		Source:  "src/main.rs",
		Chunk:   "fn main",
		Lines:   "1-20",
		Summary: "Application entry point",
	}
	tokens := EstimatePointerTokens(p)
	assert.Greater(t, tokens, uint64(0))
	assert.Less(t, tokens, uint64(100))
}

func TestBuildPointerResponse_CalculatesSavings(t *testing.T) {
	ptrs := []types.Pointer{{
		Source:  "src/lib.rs",
		Chunk:   "struct Engine",
		Lines:   "10-30",
		Summary: "Main engine struct with configuration",
	}}
	resp := BuildPointerResponse(ptrs, 0)
	assert.Greater(t, resp.Accounting.SavingsPct, 0.0)
	assert.Greater(t, resp.Accounting.TraditionalRAGEst, resp.Accounting.PointerTokens)
}

func TestBuildPointerResponse_EmptyHasZeroSavings(t *testing.T) {
	resp := BuildPointerResponse(nil, 0)
	assert.Equal(t, uint64(0), resp.Accounting.PointerTokens)
	assert.Equal(t, 0.0, resp.Accounting.SavingsPct)
	assert.Equal(t, uint64(0), resp.Accounting.TotalTokens)
}

func TestBuildPointerResponse_FetchedTokensReduceSavings(t *testing.T) {
	ptr := types.Pointer{
		Source:  "src/search.rs",
		Chunk:   "fn search",
		Lines:   "1-50",
		Summary: "Performs a hybrid search over the knowledge graph",
	}
	noFetch := BuildPointerResponse([]types.Pointer{ptr}, 0)
	withFetch := BuildPointerResponse([]types.Pointer{ptr}, 5000)

	assert.LessOrEqual(t, withFetch.Accounting.SavingsPct, noFetch.Accounting.SavingsPct)
	assert.Equal(t, uint64(5000), withFetch.Accounting.FetchedTokens)
}

func TestBuildPointerResponse_SavingsFlooredAtZero(t *testing.T) {
	resp := BuildPointerResponse(nil, 9999)
	assert.GreaterOrEqual(t, resp.Accounting.SavingsPct, 0.0)
}

func TestBuildPointerResponse_TotalTokensEqualsPointerPlusFetched(t *testing.T) {
	ptr := types.Pointer{Source: "a", Chunk: "b", Lines: "1-2", Summary: "short"}
	fetched := uint64(123)
	resp := BuildPointerResponse([]types.Pointer{ptr}, fetched)
	assert.Equal(t, resp.Accounting.PointerTokens+fetched, resp.Accounting.TotalTokens)
}

func TestEstimateTokens_EmptyStringIsZero(t *testing.T) {
	assert.Equal(t, uint64(0), EstimateTokens(""))
}
