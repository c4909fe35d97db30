package embedder

import (
	"context"
	"strings"
)

// VectorEncoder matches the searcher package's VectorEncoder interface
// structurally, so an *Adapter can be passed directly wherever the searcher
// expects one without either package importing the other.
type VectorEncoder interface {
	Encode(tokens []string) []float32
}

// Adapter lets a configured Embedder stand in for the searcher's default
// hash-based vector tier: tokens are rejoined into text, embedded, and the
// resulting vector is handed back for the same cosine-similarity code path.
type Adapter struct {
	Embedder Embedder
}

// Encode implements VectorEncoder. A provider failure degrades to a nil
// vector rather than panicking; cosine similarity against a nil vector is
// simply zero.
func (a *Adapter) Encode(tokens []string) []float32 {
	if a.Embedder == nil || len(tokens) == 0 {
		return nil
	}
	emb, err := a.Embedder.GenerateEmbedding(context.Background(), EmbeddingRequest{
		Text: strings.Join(tokens, " "),
	})
	if err != nil {
		return nil
	}
	return emb.Vector
}
