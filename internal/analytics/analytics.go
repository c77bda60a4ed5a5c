// Package analytics derives insights from health logs and conversation
// history: symptom pattern analysis through the completion model, and
// deterministic sentiment scoring and trend prediction.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"health-assist-inference-service/internal/llm"
	"health-assist-inference-service/internal/models"
)

// Pattern is one recurring symptom pattern found in the logs.
type Pattern struct {
	Symptom     string `json:"symptom"`
	Description string `json:"description"`
}

// PatternReport is the structured result of a pattern analysis. Every field
// is always populated; degraded analyses carry explanatory entries instead
// of empty slices.
type PatternReport struct {
	Patterns        []Pattern `json:"patterns"`
	Correlations    []string  `json:"correlations"`
	Recommendations []string  `json:"recommendations"`
}

// SentimentPoint is one message's sentiment score on a date.
type SentimentPoint struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

// Prediction is one trend insight derived from the health logs. Confidence
// is nil when no meaningful confidence can be stated.
type Prediction struct {
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Confidence  *float64 `json:"confidence"`
	Trend       string   `json:"trend"`
}

// Message is one user utterance with its timestamp, input to sentiment
// scoring.
type Message struct {
	Date    string
	Content string
}

var positiveWords = []string{"better", "good", "great", "improving", "happy", "relieved"}
var negativeWords = []string{"worse", "bad", "pain", "hurts", "suffering", "worried"}

// Service runs the analytics operations. The completion provider is only
// needed for pattern analysis; sentiment and predictions are local.
type Service struct {
	provider llm.TextCompletion
}

// NewService creates the analytics service.
func NewService(provider llm.TextCompletion) *Service {
	return &Service{provider: provider}
}

// AnalyzePatterns asks the model for symptom patterns across the logs. It
// never returns an error: no data, model failure and unparseable replies all
// degrade to explanatory reports.
func (s *Service) AnalyzePatterns(ctx context.Context, logs []models.HistoryEntry) PatternReport {
	if len(logs) == 0 {
		return PatternReport{
			Patterns:        []Pattern{{Symptom: "No data available", Description: "Please add some health logs first"}},
			Correlations:    []string{"No correlations found"},
			Recommendations: []string{"Please add health logs to receive personalized recommendations"},
		}
	}

	if s.provider == nil || !s.provider.Configured() {
		return errorReport("no completion provider configured")
	}

	formatted, err := json.Marshal(logs)
	if err != nil {
		return errorReport(err.Error())
	}

	start := time.Now()
	analysis, err := s.provider.Complete(ctx, llm.CompletionRequest{
		User:        buildPatternPrompt(formatted),
		Temperature: 0.3,
	})
	if err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Pattern analysis failed")
		return errorReport(err.Error())
	}

	log.Debug().Dur("duration", time.Since(start)).Int("logs", len(logs)).Msg("Pattern analysis completed")

	// The model usually answers in prose; a JSON reply is honored when one
	// comes back.
	var report PatternReport
	if err := json.Unmarshal([]byte(analysis), &report); err == nil {
		return report
	}

	return PatternReport{
		Patterns:        []Pattern{{Symptom: "Analysis completed", Description: analysis}},
		Correlations:    []string{"Analysis completed"},
		Recommendations: []string{"Based on the analysis: " + analysis},
	}
}

func buildPatternPrompt(formattedLogs []byte) string {
	return fmt.Sprintf(`Analyze these health logs and provide insights in the following format:

Logs to analyze: %s

Please provide a clear analysis in the following format:

PATTERNS IN SYMPTOMS:
- List each pattern on a new line
- Start each point with a bullet point
- Keep descriptions clear and concise

SYMPTOM CORRELATIONS:
- List each correlation on a new line
- Describe relationships between symptoms
- Include severity levels when relevant

RECOMMENDATIONS:
1. List each recommendation as a numbered point
2. Start each point on a new line
3. Make actionable suggestions
4. Prioritize important recommendations first

Format in plain text with clear spacing between sections.`, formattedLogs)
}

func errorReport(cause string) PatternReport {
	return PatternReport{
		Patterns:        []Pattern{{Symptom: "Analysis error", Description: cause}},
		Correlations:    []string{"No correlations found"},
		Recommendations: []string{"Unable to analyze patterns. Please try again."},
	}
}

// ScoreSentiment scores a message by fixed word lists: +0.2 per positive
// word present, -0.2 per negative word, clamped to [-1, 1]. Deterministic.
func ScoreSentiment(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.0
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			score += 0.2
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			score -= 0.2
		}
	}

	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

// SentimentSeries scores every message, preserving input order.
func SentimentSeries(messages []Message) []SentimentPoint {
	points := make([]SentimentPoint, 0, len(messages))
	for _, m := range messages {
		points = append(points, SentimentPoint{Date: m.Date, Score: ScoreSentiment(m.Content)})
	}
	return points
}

// PredictTrends classifies each symptom's trajectory from first to last
// recorded severity and appends a general observation when enough logs
// exist. Fewer than two logs yields the insufficient-data entry.
func PredictTrends(logs []models.HistoryEntry) []Prediction {
	if len(logs) < 2 {
		return []Prediction{{
			Label:       "Insufficient Data",
			Description: "Continue logging your health symptoms to receive personalized predictions.",
			Trend:       "stable",
		}}
	}

	bySymptom := make(map[string][]models.HistoryEntry)
	var order []string
	for _, l := range logs {
		if _, seen := bySymptom[l.Symptom]; !seen {
			order = append(order, l.Symptom)
		}
		bySymptom[l.Symptom] = append(bySymptom[l.Symptom], l)
	}

	var predictions []Prediction
	for _, symptom := range order {
		entries := bySymptom[symptom]
		if len(entries) < 2 {
			continue
		}

		// ISO dates sort lexicographically.
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

		first := entries[0].Severity
		last := entries[len(entries)-1].Severity

		switch {
		case last < first:
			predictions = append(predictions, Prediction{
				Label:       symptom + " Improvement",
				Description: fmt.Sprintf("Your %s has shown improvement over time.", strings.ToLower(symptom)),
				Confidence:  confidence(0.7),
				Trend:       "improving",
			})
		case last > first:
			predictions = append(predictions, Prediction{
				Label:       symptom + " Monitoring",
				Description: fmt.Sprintf("Your %s may require closer monitoring.", strings.ToLower(symptom)),
				Confidence:  confidence(0.65),
				Trend:       "worsening",
			})
		}
	}

	if len(logs) >= 5 {
		total := 0
		for _, l := range logs {
			total += l.Severity
		}
		avg := float64(total) / float64(len(logs))

		switch {
		case avg < 4:
			predictions = append(predictions, Prediction{
				Label:       "General Wellness",
				Description: "Your overall health indicators are positive.",
				Confidence:  confidence(0.8),
				Trend:       "stable",
			})
		case avg < 7:
			predictions = append(predictions, Prediction{
				Label:       "Health Management",
				Description: "Consider discussing recurring symptoms with a healthcare provider.",
				Confidence:  confidence(0.75),
				Trend:       "stable",
			})
		}
	}

	return predictions
}

func confidence(v float64) *float64 {
	return &v
}
