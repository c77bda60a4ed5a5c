// Package recognizer defines the interface for local speech recognition
// backends used as the fast path before the remote transcription fallback.
package recognizer

import (
	"context"
	"errors"
)

// Recognition failure modes. The transcription router maps these to
// user-facing fallback text; they never cross the orchestrator boundary.
var (
	// ErrNoSpeech means the audio was processed but contained no
	// recognizable speech.
	ErrNoSpeech = errors.New("no speech detected in audio")

	// ErrUnreachable means the recognition backend could not be reached.
	ErrUnreachable = errors.New("speech recognition service unreachable")
)

// Recognizer transcribes a normalized mono 16-bit PCM buffer in one shot.
type Recognizer interface {
	// Recognize returns the recognized text for the given PCM audio.
	// An empty transcript is reported as ErrNoSpeech, never as ("", nil).
	Recognize(ctx context.Context, pcm []byte, sampleRateHz int) (string, error)
}
