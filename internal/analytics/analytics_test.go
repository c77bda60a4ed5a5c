package analytics

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"health-assist-inference-service/internal/llm"
	"health-assist-inference-service/internal/models"
)

type stubCompletion struct {
	reply      string
	err        error
	configured bool
}

func (s *stubCompletion) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return s.reply, s.err
}

func (s *stubCompletion) Configured() bool { return s.configured }

func TestAnalyzePatterns_NoData(t *testing.T) {
	svc := NewService(&stubCompletion{configured: true})

	got := svc.AnalyzePatterns(context.Background(), nil)

	if len(got.Patterns) != 1 || got.Patterns[0].Symptom != "No data available" {
		t.Errorf("unexpected patterns %+v", got.Patterns)
	}
	if len(got.Recommendations) != 1 || !strings.Contains(got.Recommendations[0], "add health logs") {
		t.Errorf("unexpected recommendations %v", got.Recommendations)
	}
}

func TestAnalyzePatterns_ProseReplyWrapped(t *testing.T) {
	svc := NewService(&stubCompletion{configured: true, reply: "PATTERNS IN SYMPTOMS:\n- headaches recur weekly"})

	got := svc.AnalyzePatterns(context.Background(), []models.HistoryEntry{
		{Date: "2026-08-01", Symptom: "Headache", Severity: 5},
	})

	if len(got.Patterns) != 1 || got.Patterns[0].Symptom != "Analysis completed" {
		t.Errorf("unexpected patterns %+v", got.Patterns)
	}
	if !strings.Contains(got.Recommendations[0], "Based on the analysis:") {
		t.Errorf("unexpected recommendations %v", got.Recommendations)
	}
}

func TestAnalyzePatterns_JSONReplyHonored(t *testing.T) {
	reply := `{"patterns":[{"symptom":"Headache","description":"worse in the evening"}],"correlations":["headache follows poor sleep"],"recommendations":["keep a sleep diary"]}`
	svc := NewService(&stubCompletion{configured: true, reply: reply})

	got := svc.AnalyzePatterns(context.Background(), []models.HistoryEntry{
		{Date: "2026-08-01", Symptom: "Headache", Severity: 5},
	})

	if len(got.Patterns) != 1 || got.Patterns[0].Symptom != "Headache" {
		t.Errorf("structured reply not honored: %+v", got.Patterns)
	}
	if got.Correlations[0] != "headache follows poor sleep" {
		t.Errorf("unexpected correlations %v", got.Correlations)
	}
}

func TestAnalyzePatterns_ModelFailure(t *testing.T) {
	svc := NewService(&stubCompletion{configured: true, err: errors.New("upstream 500")})

	got := svc.AnalyzePatterns(context.Background(), []models.HistoryEntry{
		{Date: "2026-08-01", Symptom: "Headache", Severity: 5},
	})

	if got.Patterns[0].Symptom != "Analysis error" {
		t.Errorf("expected error report, got %+v", got.Patterns)
	}
	if got.Recommendations[0] != "Unable to analyze patterns. Please try again." {
		t.Errorf("unexpected recommendations %v", got.Recommendations)
	}
}

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"feeling much better today", 0.2},
		{"the pain is worse", -0.4},
		{"good but worried", 0.0},
		{"", 0.0},
		{"better good great improving happy relieved", 1.0},
		{"worse bad pain hurts suffering worried", -1.0},
	}

	for _, tt := range tests {
		got := ScoreSentiment(tt.text)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ScoreSentiment(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestScoreSentiment_Deterministic(t *testing.T) {
	text := "feeling better but still worried about the pain"
	first := ScoreSentiment(text)
	second := ScoreSentiment(text)
	if first != second {
		t.Errorf("expected identical scores, got %v then %v", first, second)
	}
}

func TestSentimentSeries_PreservesOrder(t *testing.T) {
	points := SentimentSeries([]Message{
		{Date: "2026-08-01", Content: "feeling good"},
		{Date: "2026-08-02", Content: "pain is worse"},
	})

	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Date != "2026-08-01" || points[0].Score <= 0 {
		t.Errorf("unexpected first point %+v", points[0])
	}
	if points[1].Score >= 0 {
		t.Errorf("expected negative second score, got %+v", points[1])
	}
}

func TestPredictTrends_InsufficientData(t *testing.T) {
	got := PredictTrends([]models.HistoryEntry{{Symptom: "Headache", Severity: 5}})

	if len(got) != 1 || got[0].Label != "Insufficient Data" {
		t.Fatalf("unexpected predictions %+v", got)
	}
	if got[0].Confidence != nil {
		t.Error("insufficient-data entry must carry no confidence")
	}
	if got[0].Trend != "stable" {
		t.Errorf("unexpected trend %s", got[0].Trend)
	}
}

func TestPredictTrends_Classification(t *testing.T) {
	logs := []models.HistoryEntry{
		{Date: "2026-08-01", Symptom: "Headache", Severity: 7},
		{Date: "2026-08-10", Symptom: "Headache", Severity: 3},
		{Date: "2026-08-02", Symptom: "Cough", Severity: 2},
		{Date: "2026-08-12", Symptom: "Cough", Severity: 6},
	}

	got := PredictTrends(logs)

	if len(got) != 2 {
		t.Fatalf("expected 2 predictions, got %+v", got)
	}
	if got[0].Label != "Headache Improvement" || got[0].Trend != "improving" {
		t.Errorf("unexpected first prediction %+v", got[0])
	}
	if got[0].Confidence == nil || *got[0].Confidence != 0.7 {
		t.Errorf("unexpected confidence %+v", got[0].Confidence)
	}
	if got[1].Label != "Cough Monitoring" || got[1].Trend != "worsening" {
		t.Errorf("unexpected second prediction %+v", got[1])
	}
}

func TestPredictTrends_StableSymptomOmitted(t *testing.T) {
	logs := []models.HistoryEntry{
		{Date: "2026-08-01", Symptom: "Headache", Severity: 5},
		{Date: "2026-08-10", Symptom: "Headache", Severity: 5},
	}

	got := PredictTrends(logs)

	if len(got) != 0 {
		t.Errorf("stable symptoms produce no prediction, got %+v", got)
	}
}

func TestPredictTrends_GeneralObservation(t *testing.T) {
	mk := func(sev int) []models.HistoryEntry {
		logs := make([]models.HistoryEntry, 5)
		for i := range logs {
			logs[i] = models.HistoryEntry{Date: "2026-08-0" + string(rune('1'+i)), Symptom: "Fatigue", Severity: sev}
		}
		return logs
	}

	got := PredictTrends(mk(2))
	if len(got) != 1 || got[0].Label != "General Wellness" {
		t.Errorf("expected wellness entry for low average severity, got %+v", got)
	}

	got = PredictTrends(mk(6))
	if len(got) != 1 || got[0].Label != "Health Management" {
		t.Errorf("expected management entry for mid average severity, got %+v", got)
	}

	got = PredictTrends(mk(9))
	if len(got) != 0 {
		t.Errorf("expected no general entry for high average severity, got %+v", got)
	}
}
