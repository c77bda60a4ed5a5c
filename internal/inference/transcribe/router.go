// Package transcribe routes normalized audio through local speech
// recognition first, then a remote model-based fallback. It never returns an
// error past its boundary: every path yields a structured Result.
package transcribe

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"health-assist-inference-service/internal/inference/audio"
	"health-assist-inference-service/internal/llm"
	"health-assist-inference-service/internal/recognizer"
)

// Outcome classifies a transcription attempt.
type Outcome int

const (
	// OutcomeOK - usable transcript produced.
	OutcomeOK Outcome = iota
	// OutcomeUnclear - the audio was processed but no speech was understood.
	OutcomeUnclear
	// OutcomeServiceUnavailable - no recognition backend could serve the call.
	OutcomeServiceUnavailable
	// OutcomeProcessingFailed - all fallback stages exhausted.
	OutcomeProcessingFailed
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeUnclear:
		return "UNCLEAR"
	case OutcomeServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case OutcomeProcessingFailed:
		return "PROCESSING_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Result is the structured output of a transcription attempt. Text is always
// user-presentable: a transcript on OK, fallback guidance otherwise.
type Result struct {
	Text    string
	Outcome Outcome
}

// User-facing fallback strings. These exact prefixes are also used by
// callers to detect a failed transcript, so they must stay stable.
const (
	msgUnclear     = "Audio unclear. Please try speaking more clearly."
	msgUnavailable = "Unable to connect to speech recognition service."
	msgFailed      = "Could not transcribe audio clearly. Please try again."
)

// transcribeSystemPrompt instructs the remote model to act as a transcription
// backend and to mark uncertain passages instead of dropping them.
const transcribeSystemPrompt = `You are an advanced audio transcription system. Your task is to:
1. Listen to the audio data
2. Transcribe the spoken content accurately
3. Identify key medical terms or symptoms mentioned
4. Return only the transcribed text without any additional commentary

If the audio isn't clear, make your best attempt and indicate uncertainty with [?].`

// Router attempts local recognition first, then the remote model fallback.
// Local-first ordering keeps the common case fast and avoids remote cost.
type Router struct {
	local           recognizer.Recognizer
	remote          llm.TextCompletion
	maxInlineBase64 int
}

// NewRouter creates a transcription router. remote may be an unconfigured
// client; the router degrades accordingly.
func NewRouter(local recognizer.Recognizer, remote llm.TextCompletion, maxInlineBase64 int) *Router {
	if maxInlineBase64 <= 0 {
		maxInlineBase64 = 256 * 1024
	}
	return &Router{local: local, remote: remote, maxInlineBase64: maxInlineBase64}
}

// remoteState classifies the remote fallback attempt.
type remoteState int

const (
	// remoteUnavailable - unconfigured client, transport failure or empty reply.
	remoteUnavailable remoteState = iota
	// remoteTranscribed - a usable transcript was produced.
	remoteTranscribed
	// remoteDeclined - the model explicitly refused to process the audio.
	remoteDeclined
)

// Transcribe runs the local-then-remote state machine over the normalized
// audio. The caller retains ownership of na and must Release it.
func (r *Router) Transcribe(ctx context.Context, na *audio.NormalizedAudio) Result {
	localText, localErr := r.tryLocal(ctx, na)
	if localErr == nil && usableTranscript(localText) {
		return Result{Text: localText, Outcome: OutcomeOK}
	}

	remoteText, state := r.tryRemote(ctx, na)
	switch state {
	case remoteTranscribed:
		return Result{Text: remoteText, Outcome: OutcomeOK}
	case remoteDeclined:
		// An explicit refusal is a backend availability problem, not a bad
		// recording. Surface whatever the local stage produced; a usable
		// local transcript never reaches this point, so any text here is a
		// local fallback message, not a real transcript.
		if localText != "" {
			return Result{Text: localText, Outcome: OutcomeProcessingFailed}
		}
		return Result{Text: msgUnavailable, Outcome: OutcomeServiceUnavailable}
	}

	// Both stages exhausted: report the most specific failure we saw.
	switch {
	case errors.Is(localErr, recognizer.ErrNoSpeech):
		return Result{Text: msgUnclear, Outcome: OutcomeUnclear}
	case errors.Is(localErr, recognizer.ErrUnreachable) && (r.remote == nil || !r.remote.Configured()):
		return Result{Text: msgUnavailable, Outcome: OutcomeServiceUnavailable}
	default:
		return Result{Text: msgFailed, Outcome: OutcomeProcessingFailed}
	}
}

// tryLocal invokes the local recognizer, containing any panic-free failure
// as an error result.
func (r *Router) tryLocal(ctx context.Context, na *audio.NormalizedAudio) (string, error) {
	if r.local == nil {
		return "", recognizer.ErrUnreachable
	}

	start := time.Now()
	text, err := r.local.Recognize(ctx, na.PCM, na.SampleRateHz)
	if err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Local recognition failed")
		return "", err
	}

	log.Debug().Dur("duration", time.Since(start)).Msg("Local recognition succeeded")
	return strings.TrimSpace(text), nil
}

// tryRemote invokes the model-based fallback and reports how the attempt
// ended. Text is only meaningful in the remoteTranscribed state.
func (r *Router) tryRemote(ctx context.Context, na *audio.NormalizedAudio) (string, remoteState) {
	if r.remote == nil || !r.remote.Configured() {
		return "", remoteUnavailable
	}

	encoded := base64.StdEncoding.EncodeToString(na.PCM)
	if len(encoded) > r.maxInlineBase64 {
		encoded = encoded[:r.maxInlineBase64]
	}

	userMessage := "This is a base64-encoded audio recording. " +
		"The person is likely talking about health symptoms or asking a medical question. " +
		"Please transcribe the content as accurately as possible.\n\n" + encoded

	reply, err := r.remote.Complete(ctx, llm.CompletionRequest{
		System:      transcribeSystemPrompt,
		User:        userMessage,
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Remote transcription failed")
		return "", remoteUnavailable
	}

	transcript := sanitizeTranscript(reply)
	if transcript == "" {
		return "", remoteUnavailable
	}

	// The model declining to process audio is not a transcript.
	if strings.Contains(transcript, "I cannot transcribe") || strings.Contains(transcript, "cannot process") {
		log.Warn().Msg("Remote transcription declined the audio")
		return "", remoteDeclined
	}

	return transcript, remoteTranscribed
}

// sanitizeTranscript strips leading labels the model sometimes prepends.
func sanitizeTranscript(s string) string {
	s = strings.ReplaceAll(s, "[Transcript]:", "")
	s = strings.ReplaceAll(s, "Transcript:", "")
	return strings.TrimSpace(s)
}

// usableTranscript reports whether text is a real transcript rather than
// empty or one of the canned fallback strings.
func usableTranscript(text string) bool {
	if text == "" {
		return false
	}
	return !strings.HasPrefix(text, "Could not") &&
		!strings.HasPrefix(text, "Audio unclear") &&
		!strings.HasPrefix(text, "Unable to connect")
}

// IsFallbackText reports whether a transcript string is one of the canned
// user-facing failure messages. Callers use it to short-circuit severity and
// response generation for failed transcripts.
func IsFallbackText(text string) bool {
	return !usableTranscript(text)
}
