// Package llm defines the narrow completion ports the inference pipelines
// depend on, plus an adapter speaking the OpenAI chat-completions wire
// format. Groq and Gemini both expose OpenAI-compatible endpoints, so a
// single adapter serves the chat, classification, transcription-fallback and
// vision calls; only base URL, key and model differ per instance.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a provider has no API key. Callers treat
// it as a degraded state, never a crash.
var ErrNotConfigured = errors.New("completion provider not configured")

// CompletionRequest is a single-turn chat completion request.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// TextCompletion is the port for remote text completion providers.
type TextCompletion interface {
	// Complete issues one chat completion and returns the assistant content.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Configured reports whether a credential is present. When false,
	// Complete fails with ErrNotConfigured without any network call.
	Configured() bool
}

// VisionCompletion is the port for remote vision-capable providers.
type VisionCompletion interface {
	// AnalyzeImage sends a text prompt plus inline image bytes and returns
	// the model's narrative text.
	AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)

	Configured() bool
}
