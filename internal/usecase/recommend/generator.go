package recommend

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mecanice/partsense/internal/domain"
)

var (
	openingFenceRe = regexp.MustCompile("^```(?:json)?\\s*")
	closingFenceRe = regexp.MustCompile("\\s*```$")
)

// Generator turns prompt messages into a schema-validated recommendation.
type Generator struct {
	chat ChatClient
}

func NewGenerator(chat ChatClient) *Generator {
	return &Generator{chat: chat}
}

// Generate runs the chat completion and parses the model output. Model
// answers that cannot be parsed or that violate the schema are reported
// as upstream failures.
func (g *Generator) Generate(ctx context.Context, messages []domain.PromptMessage) (*domain.RecommendationResponse, error) {
	raw, err := g.chat.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	jsonStr, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	resp, err := domain.ParseRecommendationResponse([]byte(jsonStr))
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// extractJSONObject pulls the JSON object out of a model answer, tolerating
// markdown code fences and surrounding prose.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = openingFenceRe.ReplaceAllString(text, "")
		text = closingFenceRe.ReplaceAllString(text, "")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in model answer: %w", domain.ErrLLMProviderError)
	}

	return text[start : end+1], nil
}
