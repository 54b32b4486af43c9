package parser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lex-technology/workwise-backend/internal/llm"
	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// Service turns extracted resume text into a validated structured document.
type Service struct {
	client llm.Client
	model  string
}

// NewService wires the provider client. model overrides the client default
// for parse calls when set.
func NewService(client llm.Client, model string) *Service {
	return &Service{client: client, model: model}
}

// Parse sends the text to the provider and validates the reply. The returned
// raw message is the cleaned full payload, suitable for caching verbatim.
func (s *Service) Parse(ctx context.Context, resumeText string) (*StructuredResume, json.RawMessage, error) {
	content, err := s.client.Complete(ctx, llm.CompletionInput{
		System:      parseSystemPrompt,
		User:        "Parse this resume:\n\n" + resumeText,
		Model:       s.model,
		JSONMode:    true,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("parse resume: %w", err)
	}

	cleaned := llm.CleanJSONResponse(content)

	var envelope struct {
		Content *SectionList `json:"content"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		telemetry.Error("parser.invalid_json", map[string]any{"error": err.Error()})
		return nil, nil, fmt.Errorf("parse resume: %w: invalid JSON", apperr.ErrMalformedProviderResponse)
	}
	if envelope.Content == nil {
		return nil, nil, fmt.Errorf("parse resume: %w: missing content key", apperr.ErrMalformedProviderResponse)
	}
	if envelope.Content.Sections == nil {
		return nil, nil, fmt.Errorf("parse resume: %w: missing sections key", apperr.ErrMalformedProviderResponse)
	}

	structured := &StructuredResume{Content: *envelope.Content}
	return structured, json.RawMessage(cleaned), nil
}
