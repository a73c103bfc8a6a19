package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDuplicatePhone signals a mechanic with an already registered phone.
	ErrDuplicatePhone = errors.New("whatsapp_phone_e164 already exists")
	// ErrInvalidInput signals a request that fails domain validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig signals a broken provider or credential configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnauthorized signals a missing or wrong admin token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorStoreError signals a vector store failure.
	ErrVectorStoreError = errors.New("vector store error")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrSchemaValidation signals an LLM answer that does not satisfy the
	// response schema. Treated as an upstream failure: the provider
	// produced an unusable answer.
	ErrSchemaValidation = errors.New("response schema validation failed")
)

// IsUpstream reports whether err originated in a dependency
// (embeddings, vector store, LLM) rather than in caller input.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrEmbeddingProviderError) ||
		errors.Is(err, ErrVectorStoreError) ||
		errors.Is(err, ErrLLMProviderError) ||
		errors.Is(err, ErrSchemaValidation)
}
