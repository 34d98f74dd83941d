package gateway

import (
	"context"
	"errors"
)

// GenerationRequest is one prompt sent to the text generation provider
type GenerationRequest struct {
	Prompt        string
	SystemContext string
	MaxTokens     int
	Temperature   float64
}

// GenerationResult is a successful provider response. Text is never empty.
type GenerationResult struct {
	Text       string
	TokensUsed int
}

// ErrEmptyCompletion is returned when the provider reports success but
// produces no text
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// GenerationGateway abstracts the external text generation provider
type GenerationGateway interface {
	// Generate performs one generation call, bounded by the context deadline
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}
