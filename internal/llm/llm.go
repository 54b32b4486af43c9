package llm

import (
	"context"
	"errors"
)

// Client abstracts the chat-completion provider behind one call. Parsing and
// every analysis go through Complete; the provider never sees domain types.
type Client interface {
	Complete(ctx context.Context, input CompletionInput) (string, error)
	Model() string
}

// CompletionInput is a single system+user exchange. Model overrides the
// client default when set, so parse and analysis can run different models.
type CompletionInput struct {
	System      string
	User        string
	Model       string
	JSONMode    bool
	Temperature float64
	MaxTokens   int
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation for environments without a
// provider key.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, input CompletionInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}

// Model identifies the stub in request logs.
func (PlaceholderClient) Model() string {
	return "placeholder"
}

var _ Client = PlaceholderClient{}
