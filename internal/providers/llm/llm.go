package llm

import (
	"context"
	"errors"
)

// Options tune one generation call. Zero MaxTokens leaves the provider
// default in place.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

type Provider interface {
	// Generate returns the complete, non-streamed completion for prompt.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Close() error
}

var (
	ErrBadStatus   = errors.New("llm: unexpected response status")
	ErrBadResponse = errors.New("llm: malformed response")
)
