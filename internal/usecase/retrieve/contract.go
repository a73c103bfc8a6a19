package retrieve

import (
	"context"

	"github.com/mecanice/partsense/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store answers nearest-neighbour queries over stored chunks.
type Store interface {
	Search(ctx context.Context, embedding []float32, topK int, sourceType string) ([]domain.StoredChunk, error)
}
