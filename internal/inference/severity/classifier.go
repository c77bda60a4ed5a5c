// Package severity assigns a severity tier to a health query. The
// substantive judgment is delegated to a remote model; this package owns
// only the deterministic envelope: tier defaulting, keyword capture and
// failure containment.
package severity

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"health-assist-inference-service/internal/llm"
)

// Tier is the ordinal severity classification attached to a turn.
type Tier int

const (
	TierNone Tier = iota
	TierLow
	TierMedium
	TierHigh
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Assessment is the structured classification result. Tier is always one of
// the four enumerated values; failure yields TierNone with Failed=true,
// never an absent value.
type Assessment struct {
	Tier           Tier
	Keywords       []string
	RawModelOutput string
	Failed         bool
}

const classifySystemPrompt = "You are a medical analyzer. Analyze the health query for severity and key medical concepts."

// Classifier wraps the remote model call.
type Classifier struct {
	provider llm.TextCompletion
}

// NewClassifier creates a classifier over the given completion provider.
func NewClassifier(provider llm.TextCompletion) *Classifier {
	return &Classifier{provider: provider}
}

// Classify analyzes text and returns an Assessment. With no credential
// configured it returns the failed assessment deterministically, without a
// network call.
//
// On success the tier is fixed at TierMedium regardless of model content;
// the model narrative rides along in RawModelOutput for future scoring.
func (c *Classifier) Classify(ctx context.Context, text string) Assessment {
	if c.provider == nil || !c.provider.Configured() {
		return Assessment{Tier: TierNone, Failed: true}
	}

	start := time.Now()
	analysis, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System:      classifySystemPrompt,
		User:        text,
		Temperature: 0.1,
	})
	if err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Severity classification failed")
		return Assessment{Tier: TierNone, Failed: true}
	}

	log.Debug().Dur("duration", time.Since(start)).Msg("Severity classification completed")

	return Assessment{
		Tier:           TierMedium,
		Keywords:       []string{text},
		RawModelOutput: analysis,
	}
}
