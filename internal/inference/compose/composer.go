// Package compose produces the assistant's reply text for a turn and
// appends severity-dependent Indian emergency and helpline information.
package compose

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"health-assist-inference-service/internal/inference/severity"
	"health-assist-inference-service/internal/llm"
)

const personaSystemPrompt = `You are HealthCompanion, an advanced AI health assistant with the tone and approach of an experienced, empathetic physician.

Your role is to:
1. Provide factual health information based on current medical knowledge and evidence-based medicine
2. Deliver responses with the professionalism and empathy of a real doctor
3. Use medical terminology appropriately but explain complex concepts in accessible language
4. Structure recommendations like a clinical consultation
5. For treatment options, provide a well-structured set of recommendations with rationale

Response format for symptom queries:
1. Start with a professional, empathetic acknowledgment
2. Discuss potential causes with clinical precision
3. Include well-structured recommendations (use **bold** formatting for key points)
4. End with appropriate guidance on medical follow-up

Important guidelines:
- Use medical terminology appropriately but explain complex concepts
- Format key points and recommendations with **bold text** for emphasis
- For moderate to severe symptoms, include specific Indian emergency numbers (108 for ambulance)
- Use numbered or bulleted lists for step-by-step recommendations
- Include specific self-care approaches when appropriate
- Maintain a professional but warm tone like an experienced physician
- Always note the limitations of virtual assessment
- For serious symptoms, emphasize the importance of in-person evaluation

CRITICAL: Your responses should sound like they come from a qualified, experienced physician who is both knowledgeable and compassionate.`

// apologyBody is the reply when the model is unreachable or unconfigured.
// Emergency and helpline blocks are still appended to it.
const apologyBody = "I'm sorry, I'm not able to process your request at the moment. Please try again later."

// emergencyBlock is appended verbatim for high-severity turns.
const emergencyBlock = `

**EMERGENCY CONTACT INFORMATION (INDIA):**
- **National Emergency Number:** 112
- **Ambulance:** 108 or 102
- **Medical Helpline:** 104
- **COVID-19 Helpline:** 1075
- **Women Helpline:** 1091

**Please seek immediate medical attention for serious symptoms.**
`

// helplineBlock is appended verbatim for medium-severity turns.
const helplineBlock = `

**HEALTH HELPLINE INFORMATION (INDIA):**
- **Medical Helpline:** 104
- **COVID-19 Helpline:** 1075
- **Mental Health Helpline:** 1800-599-0019
`

// Composer turns a user query into the final reply text.
type Composer struct {
	provider llm.TextCompletion
}

// NewComposer creates a composer over the given completion provider.
func NewComposer(provider llm.TextCompletion) *Composer {
	return &Composer{provider: provider}
}

// Compose generates the reply body for the query and decorates it according
// to the severity tier. Model failure degrades to the apology body; the
// severity blocks are appended regardless, so a high-severity turn always
// carries the emergency numbers even when the model is down.
func (c *Composer) Compose(ctx context.Context, query string, tier severity.Tier) string {
	return Decorate(c.composeBody(ctx, query), tier)
}

func (c *Composer) composeBody(ctx context.Context, query string) string {
	if c.provider == nil || !c.provider.Configured() {
		return apologyBody
	}

	start := time.Now()
	body, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System:      personaSystemPrompt,
		User:        query,
		Temperature: 0.3,
		MaxTokens:   800,
	})
	if err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Response composition failed, degrading to apology")
		return apologyBody
	}
	if body == "" {
		return apologyBody
	}

	log.Debug().Dur("duration", time.Since(start)).Int("chars", len(body)).Msg("Response composed")
	return body
}

// Decorate appends the tier-appropriate contact block to the reply body.
// High severity gets the emergency block, medium the helpline block, other
// tiers pass through unchanged.
func Decorate(body string, tier severity.Tier) string {
	switch tier {
	case severity.TierHigh:
		return body + emergencyBlock
	case severity.TierMedium:
		return body + helplineBlock
	default:
		return body
	}
}
