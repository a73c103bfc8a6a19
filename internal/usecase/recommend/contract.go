package recommend

import (
	"context"

	"github.com/mecanice/partsense/internal/domain"
)

// Retriever fetches reference chunks for a user query.
type Retriever interface {
	Retrieve(ctx context.Context, userText string) ([]domain.ContextSource, error)
}

// ChatClient runs a chat completion and returns the raw model answer.
type ChatClient interface {
	Complete(ctx context.Context, messages []domain.PromptMessage) (string, error)
}
