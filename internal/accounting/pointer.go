package accounting

import (
	"strings"

	"github.com/hermes-engine/hermes/pkg/types"
)

// traditionalRAGMultiplier is the counterfactual cost, in multiples of a
// pointer's token estimate, of having shipped full content instead.
const traditionalRAGMultiplier = 15

// EstimateTokens approximates the token count of s as ceil(words*4/3), where
// words is the count of maximal non-whitespace runs. This is the same
// estimator used for fetched bodies: no constant is added.
func EstimateTokens(s string) uint64 {
	words := uint64(len(strings.Fields(s)))
	return (words*4 + 2) / 3
}

// EstimatePointerTokens estimates a pointer's token cost by running
// EstimateTokens' word-counting rule over its source, chunk, lines, and
// summary fields concatenated, plus a constant of 2 for the pointer's fixed
// structural overhead (id and node type are not counted as words).
func EstimatePointerTokens(p types.Pointer) uint64 {
	text := strings.Join([]string{p.Source, p.Chunk, p.Lines, p.Summary}, " ")
	words := uint64(len(strings.Fields(text)))
	return (words*4+2)/3 + 2
}

// BuildPointerResponse assembles a PointerResponse from a set of pointers and
// the token cost of whatever content was fetched alongside them (0 at search
// time). Savings percentage is floored at zero: fetching enough content to
// exceed the traditional-RAG counterfactual is not reported as negative
// savings.
func BuildPointerResponse(pointers []types.Pointer, fetchedTokens uint64) types.PointerResponse {
	var pointerTokens uint64
	for _, p := range pointers {
		pointerTokens += EstimatePointerTokens(p)
	}

	traditionalEstimate := pointerTokens * traditionalRAGMultiplier
	total := pointerTokens + fetchedTokens

	var savingsPct float64
	if traditionalEstimate > 0 {
		savingsPct = (1.0 - float64(total)/float64(traditionalEstimate)) * 100.0
		if savingsPct < 0 {
			savingsPct = 0
		}
	}

	return types.PointerResponse{
		Pointers: pointers,
		Accounting: types.AccountingReport{
			PointerTokens:     pointerTokens,
			FetchedTokens:     fetchedTokens,
			TotalTokens:       total,
			TraditionalRAGEst: traditionalEstimate,
			SavingsPct:        savingsPct,
		},
	}
}
