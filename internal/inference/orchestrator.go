// Package inference orchestrates the per-turn model pipelines: text, image
// and voice inputs are routed through the stage components and produce one
// assistant turn each. Stage failures degrade to user-presentable fallback
// text; the orchestrator itself never returns an error for a turn.
package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"health-assist-inference-service/internal/inference/audio"
	"health-assist-inference-service/internal/inference/compose"
	"health-assist-inference-service/internal/inference/severity"
	"health-assist-inference-service/internal/inference/transcribe"
	"health-assist-inference-service/internal/inference/vision"
	"health-assist-inference-service/internal/models"
)

// Modality identifies the input kind of a turn.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityVoice Modality = "voice"
)

// msgAudioUnprocessable is the reply when normalization rejects the upload.
const msgAudioUnprocessable = "Could not process audio file. Please try again with a different recording."

// imageSeverityIndicators drive the image pipeline's severity scan over the
// analysis narrative and the composed reply. Any hit means TierHigh.
var imageSeverityIndicators = []string{"urgent", "emergency", "severe", "critical", "immediate attention"}

// InboundInput is one user turn entering the pipeline. Exactly one of Text,
// Image or Audio is populated according to Modality.
type InboundInput struct {
	ConversationID string
	UserID         string
	Modality       Modality
	Text           string
	Image          []byte
	ImageMIME      string
	Audio          []byte
	History        []models.HistoryEntry
}

// AssistantTurn is the pipeline's output for one input turn.
type AssistantTurn struct {
	ConversationID     string
	UserID             string
	Modality           Modality
	ReplyText          string
	SeverityTier       severity.Tier
	SeverityFailed     bool
	SourceAnalysisText string
}

// TurnSink receives completed assistant turns for downstream storage or
// streaming. Sink errors are logged, never surfaced to the user.
type TurnSink interface {
	PublishAssistantTurn(ctx context.Context, turn AssistantTurn) error
}

// Instrumentation observes pipeline execution: per-stage timings, completed
// turns with their severity tier, and the rejection counters. Implementations
// must be safe for concurrent use; the hooks sit outside decision logic and
// cannot alter the turn.
type Instrumentation interface {
	RecordStage(stage string, duration time.Duration, success bool)
	RecordTurn(modality, tier string, durationSeconds float64)
	RecordSeverityFailure()
	RecordAudioRejected()
}

// Orchestrator wires the stage components into per-modality pipelines.
type Orchestrator struct {
	normalizer *audio.Normalizer
	router     *transcribe.Router
	analyzer   *vision.Analyzer
	classifier *severity.Classifier
	composer   *compose.Composer
	sink       TurnSink
	instr      Instrumentation
	logger     zerolog.Logger
}

// NewOrchestrator creates the orchestrator. sink and instr may be nil; both
// collaborators are optional.
func NewOrchestrator(
	normalizer *audio.Normalizer,
	router *transcribe.Router,
	analyzer *vision.Analyzer,
	classifier *severity.Classifier,
	composer *compose.Composer,
	sink TurnSink,
	instr Instrumentation,
) *Orchestrator {
	return &Orchestrator{
		normalizer: normalizer,
		router:     router,
		analyzer:   analyzer,
		classifier: classifier,
		composer:   composer,
		sink:       sink,
		instr:      instr,
		logger:     log.With().Str("component", "orchestrator").Logger(),
	}
}

// Handle dispatches the input to its modality pipeline.
func (o *Orchestrator) Handle(ctx context.Context, in InboundInput) AssistantTurn {
	switch in.Modality {
	case ModalityImage:
		return o.HandleImage(ctx, in)
	case ModalityVoice:
		return o.HandleAudio(ctx, in)
	default:
		return o.HandleText(ctx, in)
	}
}

// HandleText runs the text pipeline: classify severity, compose the reply.
func (o *Orchestrator) HandleText(ctx context.Context, in InboundInput) AssistantTurn {
	turnStart := time.Now()
	assessment := o.classify(ctx, in.Text)
	reply := o.compose(ctx, in.Text, assessment.Tier)

	turn := AssistantTurn{
		ConversationID: in.ConversationID,
		UserID:         in.UserID,
		Modality:       ModalityText,
		ReplyText:      reply,
		SeverityTier:   assessment.Tier,
		SeverityFailed: assessment.Failed,
	}
	return o.finish(ctx, turn, turnStart)
}

// HandleImage runs the image pipeline. Severity here is not the classifier's
// judgment: it is a keyword scan over the analysis narrative and the composed
// reply, any indicator meaning TierHigh. The two derivations are intentionally
// separate.
func (o *Orchestrator) HandleImage(ctx context.Context, in InboundInput) AssistantTurn {
	turnStart := time.Now()
	narrative := o.analyzeImage(ctx, in)

	body := o.compose(ctx, fmt.Sprintf("Based on the image analysis: %s", narrative), severity.TierNone)

	tier := severity.TierNone
	if containsAnyIndicator(narrative) || containsAnyIndicator(body) {
		tier = severity.TierHigh
	}

	turn := AssistantTurn{
		ConversationID:     in.ConversationID,
		UserID:             in.UserID,
		Modality:           ModalityImage,
		ReplyText:          compose.Decorate(body, tier),
		SeverityTier:       tier,
		SourceAnalysisText: narrative,
	}
	return o.finish(ctx, turn, turnStart)
}

// HandleAudio runs the voice pipeline: normalize, transcribe, then the text
// pipeline stages over the transcript. A normalization failure or a failed
// transcript short-circuits with the fallback text and no downstream calls.
func (o *Orchestrator) HandleAudio(ctx context.Context, in InboundInput) AssistantTurn {
	turnStart := time.Now()
	start := time.Now()
	na, err := o.normalizer.Normalize(ctx, in.Audio)
	o.record("normalize", start, err == nil)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Audio normalization failed")
		if o.instr != nil {
			o.instr.RecordAudioRejected()
		}
		turn := AssistantTurn{
			ConversationID: in.ConversationID,
			UserID:         in.UserID,
			Modality:       ModalityVoice,
			ReplyText:      msgAudioUnprocessable,
			SeverityTier:   severity.TierNone,
		}
		return o.finish(ctx, turn, turnStart)
	}
	defer na.Release()

	start = time.Now()
	result := o.router.Transcribe(ctx, na)
	o.record("transcribe", start, result.Outcome == transcribe.OutcomeOK)

	if result.Outcome != transcribe.OutcomeOK {
		o.logger.Info().Str("outcome", result.Outcome.String()).Msg("Transcription did not produce a usable transcript")
		turn := AssistantTurn{
			ConversationID: in.ConversationID,
			UserID:         in.UserID,
			Modality:       ModalityVoice,
			ReplyText:      result.Text,
			SeverityTier:   severity.TierNone,
		}
		return o.finish(ctx, turn, turnStart)
	}

	assessment := o.classify(ctx, result.Text)
	reply := o.compose(ctx, result.Text, assessment.Tier)

	turn := AssistantTurn{
		ConversationID:     in.ConversationID,
		UserID:             in.UserID,
		Modality:           ModalityVoice,
		ReplyText:          reply,
		SeverityTier:       assessment.Tier,
		SeverityFailed:     assessment.Failed,
		SourceAnalysisText: result.Text,
	}
	return o.finish(ctx, turn, turnStart)
}

func (o *Orchestrator) classify(ctx context.Context, text string) severity.Assessment {
	start := time.Now()
	assessment := o.classifier.Classify(ctx, text)
	o.record("classify", start, !assessment.Failed)
	if assessment.Failed && o.instr != nil {
		o.instr.RecordSeverityFailure()
	}
	return assessment
}

func (o *Orchestrator) compose(ctx context.Context, prompt string, tier severity.Tier) string {
	start := time.Now()
	reply := o.composer.Compose(ctx, prompt, tier)
	o.record("compose", start, true)
	return reply
}

// analyzeImage returns the analysis narrative. A failed analysis degrades to
// explanatory text that still flows through composition and the severity
// scan, matching the text a user would see.
func (o *Orchestrator) analyzeImage(ctx context.Context, in InboundInput) string {
	start := time.Now()
	finding, err := o.analyzer.Analyze(ctx, in.Image, in.ImageMIME, in.History)
	o.record("vision", start, err == nil)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Image analysis failed")
		return "I couldn't analyze the image due to a technical issue."
	}
	return finding.NarrativeText
}

// finish records the completed turn and hands it to the sink.
func (o *Orchestrator) finish(ctx context.Context, turn AssistantTurn, start time.Time) AssistantTurn {
	if o.instr != nil {
		o.instr.RecordTurn(string(turn.Modality), turn.SeverityTier.String(), time.Since(start).Seconds())
	}
	o.emit(ctx, turn)
	return turn
}

func (o *Orchestrator) emit(ctx context.Context, turn AssistantTurn) {
	if o.sink == nil {
		return
	}
	if err := o.sink.PublishAssistantTurn(ctx, turn); err != nil {
		o.logger.Error().Err(err).Str("conversationId", turn.ConversationID).Msg("Failed to publish assistant turn")
	}
}

func (o *Orchestrator) record(stage string, start time.Time, success bool) {
	if o.instr != nil {
		o.instr.RecordStage(stage, time.Since(start), success)
	}
}

func containsAnyIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range imageSeverityIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
