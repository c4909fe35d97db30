package types

// SearchTier identifies which of the three search tiers produced a result.
type SearchTier string

const (
	TierLiteral SearchTier = "l0_literal"
	TierFTS     SearchTier = "l1_fts"
	TierVector  SearchTier = "l2_vector"
)

// SearchResult is a single tier's scored hit against a node. Score is always
// in [0,1]. MatchedContent is optional context a tier may attach (unused by
// the tiers implemented today, reserved for future tiers).
type SearchResult struct {
	Node           Node
	Score          float64
	Tier           SearchTier
	MatchedContent string
}

// Validate checks the invariants a SearchResult must satisfy.
func (sr *SearchResult) Validate() error {
	if sr.Node.ID == "" {
		return ErrMissingNodeID
	}
	if sr.Score < 0 || sr.Score > 1 {
		return ErrInvalidScore
	}
	return nil
}
