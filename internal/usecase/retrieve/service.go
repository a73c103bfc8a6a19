// Package retrieve turns a free-text query into ranked context sources
// drawn from the vector store.
package retrieve

import (
	"context"
	"fmt"

	"github.com/mecanice/partsense/internal/domain"
)

// Service embeds the user text and fetches the closest stored chunks.
type Service struct {
	embed     Embedder
	store     Store
	topK      int
	maxChunks int
}

// New creates a retrieval service. topK bounds the store query and
// maxChunks bounds how many sources are handed to the prompt.
func New(embed Embedder, store Store, topK, maxChunks int) *Service {
	return &Service{embed: embed, store: store, topK: topK, maxChunks: maxChunks}
}

// Retrieve returns up to maxChunks context sources ordered by ascending
// distance to the query.
func (s *Service) Retrieve(ctx context.Context, userText string) ([]domain.ContextSource, error) {
	embResult, err := s.embed.Embed(ctx, userText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.store.Search(ctx, embResult.Embedding, s.topK, "")
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	if len(chunks) > s.maxChunks {
		chunks = chunks[:s.maxChunks]
	}

	sources := make([]domain.ContextSource, 0, len(chunks))
	for _, chunk := range chunks {
		sources = append(sources, domain.ContextSource{
			SourceID:   chunk.SourceID,
			SourceType: chunk.SourceType,
			Text:       chunk.ChunkText,
		})
	}

	return sources, nil
}
