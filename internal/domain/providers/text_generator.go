package providers

import (
	"context"
	"errors"
)

var (
	// ErrGenerationFailed marks transient failures (transport errors, 5xx,
	// rate limits) that may be retried.
	ErrGenerationFailed = errors.New("text generation failed")

	// ErrGenerationRejected marks requests the service refused outright.
	ErrGenerationRejected = errors.New("text generation rejected")

	// ErrEmptyGeneration is returned when the response carries no candidate text.
	ErrEmptyGeneration = errors.New("text generation returned no candidate")

	// ErrGeneratorUnavailable is returned when no generator is configured or
	// its circuit is open.
	ErrGeneratorUnavailable = errors.New("text generator unavailable")
)

// GenerationOptions is the sampling configuration sent with a prompt.
type GenerationOptions struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// TextGenerator produces a single text candidate for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}
