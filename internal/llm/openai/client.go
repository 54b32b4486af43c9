package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"

	"github.com/lex-technology/workwise-backend/internal/llm"
	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
	"github.com/lex-technology/workwise-backend/internal/shared/metrics"
	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// Client implements llm.Client on the OpenAI chat completions API. Pointing
// BaseURL at DeepSeek's compatible endpoint switches providers without any
// other change.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// Config carries provider wiring; Timeout bounds each Complete call.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient constructs a provider client. Key and model are required.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("provider API key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	api := openai.NewClient(opts...)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		api:     &api,
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

// Model returns the default model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one chat completion and returns the assistant content.
// Exceeding the configured timeout maps to ErrProviderTimeout.
func (c *Client) Complete(ctx context.Context, input llm.CompletionInput) (string, error) {
	model := strings.TrimSpace(input.Model)
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(input.System),
			openai.UserMessage(input.User),
		},
		Model: openai.ChatModel(model),
	}
	if input.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		}
	}
	if input.Temperature > 0 {
		params.Temperature = openai.Float(input.Temperature)
	}
	if input.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(input.MaxTokens))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	completion, err := c.api.Chat.Completions.New(callCtx, params)
	metrics.ObserveProviderCallMs(float64(time.Since(started).Milliseconds()))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("model call model=%s: %w", model, apperr.ErrProviderTimeout)
		}
		return "", fmt.Errorf("model call model=%s: %w", model, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("model call model=%s: %w: no choices", model, apperr.ErrMalformedProviderResponse)
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("model call model=%s: %w: empty content", model, apperr.ErrMalformedProviderResponse)
	}

	if completion.Usage.TotalTokens > 0 {
		telemetry.Info("llm.usage", map[string]any{
			"model":             model,
			"prompt_tokens":     completion.Usage.PromptTokens,
			"completion_tokens": completion.Usage.CompletionTokens,
			"total_tokens":      completion.Usage.TotalTokens,
		})
	}

	return content, nil
}

var _ llm.Client = (*Client)(nil)
