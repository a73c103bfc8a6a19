package domain

import (
	"encoding/json"
	"fmt"
)

// Enumerated domains of the recommendation schema.
const (
	SourceTypeCatalog   = "catalog"
	SourceTypeManual    = "manual"
	SourceTypeUserImage = "user_image"
	SourceTypeUnknown   = "unknown"

	AxleFront   = "front"
	AxleRear    = "rear"
	AxleUnknown = "unknown"

	ConfirmQuestion    = "question"
	ConfirmPhoto       = "photo"
	ConfirmMeasurement = "measurement"

	// ResponseLanguage is the only language tag the assistant answers in.
	ResponseLanguage = "pt-BR"

	// IntentIdentifyPart is the only intent the assistant detects.
	IntentIdentifyPart = "identify_part"
)

func validSourceType(s string) bool {
	return s == SourceTypeCatalog || s == SourceTypeManual || s == SourceTypeUserImage || s == SourceTypeUnknown
}

func validAxle(s string) bool {
	return s == AxleFront || s == AxleRear || s == AxleUnknown
}

func validConfirmType(s string) bool {
	return s == ConfirmQuestion || s == ConfirmPhoto || s == ConfirmMeasurement
}

// KnownFields carries vehicle facts the caller already knows. Absent
// fields default to the literal "unknown".
type KnownFields struct {
	Axle          string `json:"axle"`
	RearBrakeType string `json:"rear_brake_type"`
	Engine        string `json:"engine"`
	ABS           string `json:"abs"`
}

// Normalized returns a copy with empty fields replaced by "unknown".
func (k KnownFields) Normalized() KnownFields {
	def := func(s string) string {
		if s == "" {
			return "unknown"
		}
		return s
	}
	return KnownFields{
		Axle:          def(k.Axle),
		RearBrakeType: def(k.RearBrakeType),
		Engine:        def(k.Engine),
		ABS:           def(k.ABS),
	}
}

// ContextSource is a retrieval result reshaped for prompt consumption.
type ContextSource struct {
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"`
	Text       string `json:"text"`
}

// StoredChunk is a persisted vector store row plus the query-time distance.
type StoredChunk struct {
	SourceID   string
	SourceType string
	ChunkText  string
	Metadata   map[string]any
	Distance   float64
}

// RecommendationRequest is the inbound part-identification query.
type RecommendationRequest struct {
	RequestID      string          `json:"request_id"`
	UserText       string          `json:"user_text"`
	ImagesBase64   []string        `json:"images_base64,omitempty"`
	KnownFields    KnownFields     `json:"known_fields"`
	ContextSources []ContextSource `json:"context_sources,omitempty"`
}

// Validate checks caller input. Failures wrap ErrInvalidInput.
func (r *RecommendationRequest) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("%w: request_id is required", ErrInvalidInput)
	}
	if r.UserText == "" {
		return fmt.Errorf("%w: user_text is required", ErrInvalidInput)
	}
	return nil
}

// PromptMessage is a role-tagged chat message.
type PromptMessage struct {
	Role    string
	Content string
}

// Prompt roles.
const (
	RoleSystem    = "system"
	RoleDeveloper = "developer"
	RoleUser      = "user"
)

// Evidence backs a part number claim with a source snippet.
type Evidence struct {
	SourceType string  `json:"source_type"`
	SourceID   *string `json:"source_id,omitempty"`
	Snippet    string  `json:"snippet"`
}

// Confirmation is a single disambiguating check the mechanic can do.
type Confirmation struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
}

// Candidate is one possible part match.
type Candidate struct {
	Label         string         `json:"label"`
	Name          string         `json:"name"`
	PartNumbers   []string       `json:"part_numbers"`
	Brand         *string        `json:"brand,omitempty"`
	Confidence    float64        `json:"confidence"`
	Evidence      []Evidence     `json:"evidence"`
	WhatToConfirm []Confirmation `json:"what_to_confirm"`
	RiskNotes     *string        `json:"risk_notes,omitempty"`
}

// InputSummary restates what the assistant understood from the input.
type InputSummary struct {
	RawText        string `json:"raw_text"`
	HasImages      bool   `json:"has_images"`
	DetectedIntent string `json:"detected_intent"`
}

// VehicleGuess is the assistant's vehicle identification attempt.
type VehicleGuess struct {
	Make          *string  `json:"make,omitempty"`
	Model         *string  `json:"model,omitempty"`
	Year          *int     `json:"year,omitempty"`
	VariantNotes  *string  `json:"variant_notes,omitempty"`
	Confidence    float64  `json:"confidence"`
	MissingFields []string `json:"missing_fields"`
}

// PartRequest is the normalized part being asked about.
type PartRequest struct {
	PartType          string  `json:"part_type"`
	Axle              string  `json:"axle"`
	SymptomsOrContext *string `json:"symptoms_or_context,omitempty"`
}

// NextQuestion is the single most disambiguating confirmation to ask.
type NextQuestion struct {
	Ask    bool   `json:"ask"`
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
	Reason string `json:"reason"`
}

// Safety carries the non-negotiable output policy flags.
type Safety struct {
	NoOwnerData           bool   `json:"no_owner_data"`
	NoGuessingPartNumbers bool   `json:"no_guessing_part_numbers"`
	DisclaimerShort       string `json:"disclaimer_short"`
}

// RecommendationResponse is the strict output schema of the pipeline.
// Section fields are pointers so a missing section is detectable after
// unmarshalling.
type RecommendationResponse struct {
	RequestID    string        `json:"request_id"`
	Language     string        `json:"language"`
	InputSummary *InputSummary `json:"input_summary"`
	VehicleGuess *VehicleGuess `json:"vehicle_guess"`
	PartRequest  *PartRequest  `json:"part_request"`
	Candidates   []Candidate   `json:"candidates"`
	NextQuestion *NextQuestion `json:"next_question"`
	Safety       *Safety       `json:"safety"`
}

// Validate enforces the response schema shape: required sections
// present, enum domains respected, confidence fields in [0, 1].
// Failures wrap ErrSchemaValidation.
func (r *RecommendationResponse) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrSchemaValidation, fmt.Sprintf(format, args...))
	}

	if r.RequestID == "" {
		return fail("request_id is required")
	}
	if r.Language != ResponseLanguage {
		return fail("language must be %q, got %q", ResponseLanguage, r.Language)
	}
	if r.InputSummary == nil {
		return fail("input_summary is required")
	}
	if r.InputSummary.DetectedIntent != IntentIdentifyPart {
		return fail("input_summary.detected_intent must be %q", IntentIdentifyPart)
	}
	if r.VehicleGuess == nil {
		return fail("vehicle_guess is required")
	}
	if !inUnit(r.VehicleGuess.Confidence) {
		return fail("vehicle_guess.confidence %v out of [0,1]", r.VehicleGuess.Confidence)
	}
	if r.PartRequest == nil {
		return fail("part_request is required")
	}
	if !validAxle(r.PartRequest.Axle) {
		return fail("part_request.axle %q not in {front, rear, unknown}", r.PartRequest.Axle)
	}
	for i, c := range r.Candidates {
		if !inUnit(c.Confidence) {
			return fail("candidates[%d].confidence %v out of [0,1]", i, c.Confidence)
		}
		for j, ev := range c.Evidence {
			if !validSourceType(ev.SourceType) {
				return fail("candidates[%d].evidence[%d].source_type %q invalid", i, j, ev.SourceType)
			}
		}
		for j, wc := range c.WhatToConfirm {
			if !validConfirmType(wc.Type) {
				return fail("candidates[%d].what_to_confirm[%d].type %q invalid", i, j, wc.Type)
			}
		}
	}
	if r.NextQuestion == nil {
		return fail("next_question is required")
	}
	if !validConfirmType(r.NextQuestion.Type) {
		return fail("next_question.type %q not in {question, photo, measurement}", r.NextQuestion.Type)
	}
	if r.Safety == nil {
		return fail("safety is required")
	}
	return nil
}

// ParseRecommendationResponse unmarshals and schema-validates a raw
// JSON object produced by the model.
func ParseRecommendationResponse(data []byte) (*RecommendationResponse, error) {
	var resp RecommendationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrSchemaValidation, err)
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }
