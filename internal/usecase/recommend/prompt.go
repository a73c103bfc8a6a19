package recommend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mecanice/partsense/internal/domain"
)

// maxContextChars caps the rendered length of a single context source.
const maxContextChars = 900

const systemPromptPT = `Você é um assistente técnico para ajudar mecânicos a identificar peças automotivas com segurança.
Você DEVE responder exclusivamente em JSON válido seguindo o schema fornecido.
Você NÃO pode inventar códigos de peça, OEM, aplicações ou compatibilidades.
Você só pode incluir "part_numbers" quando houver evidência explícita no CONTEXTO (RAG) ou fornecida pelo usuário (foto/código).
Quando houver ambiguidade, retorne 2-5 candidatos com menor confiança e solicite confirmação via "next_question" (pergunta, foto ou medida).
Se faltarem dados críticos (ex.: eixo dianteiro/traseiro, disco/tambor), priorize a pergunta que mais reduz a ambiguidade.
Você nunca deve fornecer ou solicitar dados pessoais do proprietário do veículo.
Se não houver evidência suficiente, retorne candidates vazio ou com candidatos sem part_numbers, e peça confirmação.
`

const developerInstructionsPT = `Tarefa: identificar peça com base no input do usuário e nos trechos de referência fornecidos em CONTEXT_SOURCES.

1) Extraia o máximo de informações do veículo e peça.
2) Use SOMENTE o que estiver apoiado por evidência em CONTEXT_SOURCES ou no input do usuário.
3) Se houver mais de uma aplicação possível, crie 2-5 candidatos.
4) Gere next_question com a confirmação mínima (1 coisa) que mais separa os candidatos.
5) Retorne apenas JSON válido.
`

const schemaReminderPT = `O JSON de saída DEVE seguir este shape (campos obrigatórios):
- request_id (string)
- language = "pt-BR"
- input_summary { raw_text, has_images, detected_intent="identify_part" }
- vehicle_guess { make, model, year, variant_notes, confidence(0..1), missing_fields[] }
- part_request { part_type, axle("front"|"rear"|"unknown"), symptoms_or_context }
- candidates[] (pode ser vazio)
- next_question { ask, type("question"|"photo"|"measurement"), prompt, reason }
- safety { no_owner_data=true, no_guessing_part_numbers=true, disclaimer_short }

Regras:
- part_numbers só quando houver evidência explícita no CONTEXT_SOURCES (ou código explícito do usuário).
- confidence sempre entre 0 e 1.
- Se estiver ambíguo, next_question.ask=true.
`

// PromptBuilder renders the chat messages sent to the model.
type PromptBuilder struct {
	maxChunks int
}

// NewPromptBuilder creates a builder that renders at most maxChunks context
// sources into the developer message.
func NewPromptBuilder(maxChunks int) *PromptBuilder {
	return &PromptBuilder{maxChunks: maxChunks}
}

// BuildMessages composes the system, developer and user messages for a
// request. Image bytes never enter the prompt, only the has_images flag.
func (b *PromptBuilder) BuildMessages(req *domain.RecommendationRequest) []domain.PromptMessage {
	contextBlock := b.formatContextSources(req.ContextSources)

	payload := map[string]any{
		"request_id":   req.RequestID,
		"user_text":    req.UserText,
		"has_images":   len(req.ImagesBase64) > 0,
		"known_fields": req.KnownFields.Normalized(),
	}
	payloadJSON, _ := json.Marshal(payload)

	return []domain.PromptMessage{
		{Role: domain.RoleSystem, Content: systemPromptPT},
		{Role: domain.RoleDeveloper, Content: developerInstructionsPT + "\n\n" + schemaReminderPT + "\n\n" + contextBlock},
		{Role: domain.RoleUser, Content: fmt.Sprintf("INPUT_JSON:\n%s\n\nResponda apenas com JSON válido.", payloadJSON)},
	}
}

func (b *PromptBuilder) formatContextSources(sources []domain.ContextSource) string {
	if len(sources) == 0 {
		return "CONTEXT_SOURCES:\n- (vazio)\n"
	}

	if len(sources) > b.maxChunks {
		sources = sources[:b.maxChunks]
	}

	var sb strings.Builder
	sb.WriteString("CONTEXT_SOURCES:")
	for _, s := range sources {
		text := strings.ReplaceAll(strings.TrimSpace(s.Text), "\n", " ")
		if runes := []rune(text); len(runes) > maxContextChars {
			text = string(runes[:maxContextChars]) + "..."
		}
		sb.WriteString(fmt.Sprintf("\n- [%s] %s: %s", s.SourceType, s.SourceID, text))
	}
	sb.WriteString("\n")
	return sb.String()
}
