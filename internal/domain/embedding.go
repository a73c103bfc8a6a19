package domain

import (
	"context"
	"crypto/sha256"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// HashEmbedder derives a vector purely from a sha256 hash of the input.
// Identical input always yields a bit-identical vector; no network, no
// randomness. Meant for local development and ingestion dry runs, never
// for production retrieval quality.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a deterministic embedder of the given dimension.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 1536
	}
	return &HashEmbedder{dim: dim}
}

// Embed expands hash bytes cyclically into dim floats in [-1, 1].
func (e *HashEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	h := sha256.Sum256([]byte(text))
	out := make([]float32, e.dim)
	for i := range out {
		b := h[i%len(h)]
		out[i] = float32(b)/255.0*2.0 - 1.0
	}
	return EmbeddingResult{Embedding: out}, nil
}
