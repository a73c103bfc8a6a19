// Package recommend orchestrates the part-identification flow: context
// retrieval, response caching, prompt building, model generation and
// schema validation.
package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mecanice/partsense/internal/domain"
	"github.com/mecanice/partsense/internal/metrics"
)

// Service produces schema-validated part recommendations.
type Service struct {
	retriever Retriever
	generator *Generator
	prompts   *PromptBuilder
	cache     *TTLCache
	logger    *zap.Logger
}

// New creates a recommendation service.
func New(
	retriever Retriever,
	generator *Generator,
	prompts *PromptBuilder,
	cache *TTLCache,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		retriever: retriever,
		generator: generator,
		prompts:   prompts,
		cache:     cache,
		logger:    logger,
	}
}

// Recommend answers a part-identification query. Requests without caller
// supplied context sources are enriched from the vector store first. The
// cache check strictly precedes the model call so repeated questions never
// spend tokens.
func (s *Service) Recommend(ctx context.Context, req *domain.RecommendationRequest) (*domain.RecommendationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if len(req.ContextSources) == 0 {
		sources, err := s.retriever.Retrieve(ctx, req.UserText)
		if err != nil {
			return nil, fmt.Errorf("retrieve context: %w", err)
		}
		req.ContextSources = sources
	}

	cacheKey := BuildCacheKey(req.UserText, req.KnownFields)
	if cached, ok := s.cache.Get(cacheKey); ok {
		metrics.RecommendationCacheTotal.WithLabelValues("hit").Inc()
		s.logger.Debug("Recommendation cache hit", zap.String("request_id", req.RequestID))
		return cached, nil
	}
	metrics.RecommendationCacheTotal.WithLabelValues("miss").Inc()

	messages := s.prompts.BuildMessages(req)

	resp, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate recommendation: %w", err)
	}

	s.cache.Set(cacheKey, resp)

	s.logger.Info("Recommendation generated",
		zap.String("request_id", req.RequestID),
		zap.Int("context_sources", len(req.ContextSources)),
		zap.Int("candidates", len(resp.Candidates)),
	)

	return resp, nil
}
