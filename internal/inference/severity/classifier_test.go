package severity

import (
	"context"
	"errors"
	"testing"

	"health-assist-inference-service/internal/llm"
)

type stubCompletion struct {
	reply      string
	err        error
	configured bool
	called     bool
}

func (s *stubCompletion) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.called = true
	return s.reply, s.err
}

func (s *stubCompletion) Configured() bool { return s.configured }

func TestClassify_NoCredential(t *testing.T) {
	provider := &stubCompletion{configured: false}
	c := NewClassifier(provider)

	got := c.Classify(context.Background(), "I have a headache")

	if got.Tier != TierNone {
		t.Errorf("expected TierNone, got %v", got.Tier)
	}
	if !got.Failed {
		t.Error("expected Failed=true")
	}
	if len(got.Keywords) != 0 {
		t.Errorf("expected no keywords, got %v", got.Keywords)
	}
	if provider.called {
		t.Error("no network call may be attempted without a credential")
	}
}

func TestClassify_SuccessFixesMediumTier(t *testing.T) {
	provider := &stubCompletion{configured: true, reply: "moderate concern, monitor symptoms"}
	c := NewClassifier(provider)

	got := c.Classify(context.Background(), "severe chest pain")

	if got.Tier != TierMedium {
		t.Errorf("expected TierMedium on success, got %v", got.Tier)
	}
	if got.Failed {
		t.Error("expected Failed=false")
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "severe chest pain" {
		t.Errorf("unexpected keywords %v", got.Keywords)
	}
	if got.RawModelOutput != "moderate concern, monitor symptoms" {
		t.Errorf("unexpected raw output %q", got.RawModelOutput)
	}
}

func TestClassify_TransportFailure(t *testing.T) {
	provider := &stubCompletion{configured: true, err: errors.New("timeout")}
	c := NewClassifier(provider)

	got := c.Classify(context.Background(), "dizzy spells")

	if got.Tier != TierNone {
		t.Errorf("expected TierNone on failure, got %v", got.Tier)
	}
	if !got.Failed {
		t.Error("expected Failed=true")
	}
}

func TestTier_String(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierNone, "none"},
		{TierLow, "low"},
		{TierMedium, "medium"},
		{TierHigh, "high"},
	}

	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %s, want %s", int(tt.tier), got, tt.want)
		}
	}
}
