// Package mock provides a mock recognizer for running without cloud
// credentials. It cycles through canned health-related utterances so the
// full pipeline can be exercised end to end in development.
package mock

import (
	"context"
	"sync"

	"health-assist-inference-service/internal/recognizer"
)

// DefaultUtterances provides sample transcripts for simulation.
var DefaultUtterances = []string{
	"I have had a headache since yesterday evening",
	"my throat hurts and I feel feverish",
	"the rash on my arm is getting bigger",
	"I have been coughing for three days",
	"my lower back pain is worse in the morning",
}

// Adapter implements recognizer.Recognizer with canned responses.
type Adapter struct {
	mu      sync.Mutex
	counter int
}

// New creates a new mock recognizer.
func New() *Adapter {
	return &Adapter{}
}

// Recognize returns the next canned utterance. Empty audio is reported as
// ErrNoSpeech, mirroring a real backend's no-speech result.
func (a *Adapter) Recognize(ctx context.Context, pcm []byte, sampleRateHz int) (string, error) {
	if len(pcm) == 0 {
		return "", recognizer.ErrNoSpeech
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	text := DefaultUtterances[a.counter%len(DefaultUtterances)]
	a.counter++
	return text, nil
}
