// Package vision analyzes medical images through a remote vision-capable
// model and derives structured findings from the narrative.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"health-assist-inference-service/internal/llm"
	"health-assist-inference-service/internal/models"
)

// ErrAnalysisUnavailable is returned when no vision credential is configured
// or the remote call fails. The underlying cause is attached for logging;
// raw transport errors never reach the caller unwrapped.
var ErrAnalysisUnavailable = errors.New("image analysis unavailable")

// attentionTerms drive the deterministic RequiresAttention flag. The model's
// own judgment is never trusted for this.
var attentionTerms = []string{"urgent", "severe", "immediate", "concerning"}

// medicalVocabulary is the fixed term set scanned out of the narrative.
var medicalVocabulary = []string{
	"acute", "chronic", "lesion", "inflammation",
	"edema", "erythema", "papule", "nodule",
}

// Finding is the structured result of an image analysis.
type Finding struct {
	NarrativeText     string
	RequiresAttention bool
	ExtractedTerms    []string
}

// Analyzer sends images to a vision-capable completion provider.
type Analyzer struct {
	provider llm.VisionCompletion
}

// NewAnalyzer creates an analyzer over the given vision provider.
func NewAnalyzer(provider llm.VisionCompletion) *Analyzer {
	return &Analyzer{provider: provider}
}

// Analyze sends the image plus optional symptom history for analysis.
// A missing credential fails immediately and is not retried.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string, history []models.HistoryEntry) (*Finding, error) {
	if a.provider == nil || !a.provider.Configured() {
		return nil, fmt.Errorf("%w: no credential configured", ErrAnalysisUnavailable)
	}

	start := time.Now()
	narrative, err := a.provider.AnalyzeImage(ctx, buildPrompt(history), image, mimeType)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Vision analysis failed")
		return nil, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}

	finding := &Finding{
		NarrativeText:     narrative,
		RequiresAttention: RequiresAttention(narrative),
		ExtractedTerms:    ExtractMedicalTerms(narrative),
	}

	log.Debug().
		Bool("requiresAttention", finding.RequiresAttention).
		Strs("terms", finding.ExtractedTerms).
		Dur("duration", time.Since(start)).
		Msg("Vision analysis completed")

	return finding, nil
}

// buildPrompt embeds the symptom history as plain-text context and requests
// a structured, explicitly non-diagnostic analysis.
func buildPrompt(history []models.HistoryEntry) string {
	var historyContext string
	if len(history) > 0 {
		var sb strings.Builder
		sb.WriteString("Previous symptoms and images:\n")
		for _, h := range history {
			fmt.Fprintf(&sb, "- %s: %s\n", h.Date, h.Description)
		}
		historyContext = sb.String()
	}

	return fmt.Sprintf(`Analyze this medical image in detail:
1. Identify visible symptoms and characteristics
2. Compare with previous records if available
3. Note any significant changes
4. Suggest potential medical terms
5. Recommend if professional evaluation is needed

Do not make definitive diagnoses; note that only a healthcare professional
can evaluate the condition in person.

Historical Context:
%s
Provide structured analysis in medical terminology.`, historyContext)
}

// RequiresAttention reports whether the narrative contains any of the fixed
// attention terms. Pure function of the text: same input, same answer.
func RequiresAttention(narrative string) bool {
	lower := strings.ToLower(narrative)
	for _, term := range attentionTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// ExtractMedicalTerms returns the fixed-vocabulary terms present in the
// narrative, in vocabulary order.
func ExtractMedicalTerms(narrative string) []string {
	lower := strings.ToLower(narrative)
	var terms []string
	for _, term := range medicalVocabulary {
		if strings.Contains(lower, term) {
			terms = append(terms, term)
		}
	}
	return terms
}
