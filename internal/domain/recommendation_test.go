package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validResponseJSON() map[string]any {
	return map[string]any{
		"request_id": "req-1",
		"language":   "pt-BR",
		"input_summary": map[string]any{
			"raw_text":        "barulho ao frear",
			"has_images":      false,
			"detected_intent": "identify_part",
		},
		"vehicle_guess": map[string]any{
			"confidence":     0.4,
			"missing_fields": []string{"year"},
		},
		"part_request": map[string]any{
			"part_type": "brake_pad",
			"axle":      "rear",
		},
		"candidates": []any{
			map[string]any{
				"label":      "A",
				"name":       "Pastilha traseira",
				"confidence": 0.55,
				"evidence": []any{
					map[string]any{"source_type": "catalog", "snippet": "pastilha"},
				},
			},
		},
		"next_question": map[string]any{
			"ask":    true,
			"type":   "question",
			"prompt": "Freio a disco ou tambor?",
			"reason": "separa os candidatos",
		},
		"safety": map[string]any{
			"no_owner_data":            true,
			"no_guessing_part_numbers": true,
			"disclaimer_short":         "Confirme antes de comprar.",
		},
	}
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestParseRecommendationResponse_Valid(t *testing.T) {
	resp, err := ParseRecommendationResponse(marshal(t, validResponseJSON()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RequestID != "req-1" {
		t.Errorf("request_id = %q", resp.RequestID)
	}
	if resp.PartRequest.Axle != AxleRear {
		t.Errorf("axle = %q", resp.PartRequest.Axle)
	}
	if len(resp.Candidates) != 1 {
		t.Errorf("candidates = %d", len(resp.Candidates))
	}
}

func TestParseRecommendationResponse_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   string
	}{
		{
			name:   "missing next_question",
			mutate: func(m map[string]any) { delete(m, "next_question") },
			want:   "next_question",
		},
		{
			name: "confidence above one",
			mutate: func(m map[string]any) {
				m["vehicle_guess"].(map[string]any)["confidence"] = 1.5
			},
			want: "vehicle_guess.confidence",
		},
		{
			name: "negative candidate confidence",
			mutate: func(m map[string]any) {
				m["candidates"].([]any)[0].(map[string]any)["confidence"] = -0.1
			},
			want: "candidates[0].confidence",
		},
		{
			name:   "wrong language",
			mutate: func(m map[string]any) { m["language"] = "en-US" },
			want:   "language",
		},
		{
			name: "invalid axle",
			mutate: func(m map[string]any) {
				m["part_request"].(map[string]any)["axle"] = "middle"
			},
			want: "axle",
		},
		{
			name: "invalid next_question type",
			mutate: func(m map[string]any) {
				m["next_question"].(map[string]any)["type"] = "call"
			},
			want: "next_question.type",
		},
		{
			name:   "missing safety",
			mutate: func(m map[string]any) { delete(m, "safety") },
			want:   "safety",
		},
		{
			name:   "missing request_id",
			mutate: func(m map[string]any) { delete(m, "request_id") },
			want:   "request_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validResponseJSON()
			tt.mutate(m)
			_, err := ParseRecommendationResponse(marshal(t, m))
			if err == nil {
				t.Fatal("expected schema error")
			}
			if !errors.Is(err, ErrSchemaValidation) {
				t.Errorf("expected ErrSchemaValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseRecommendationResponse_InvalidJSON(t *testing.T) {
	_, err := ParseRecommendationResponse([]byte("{not json"))
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
}

func TestKnownFieldsNormalized(t *testing.T) {
	k := KnownFields{Axle: "rear"}.Normalized()
	if k.Axle != "rear" || k.RearBrakeType != "unknown" || k.Engine != "unknown" || k.ABS != "unknown" {
		t.Errorf("unexpected normalization: %+v", k)
	}
}
