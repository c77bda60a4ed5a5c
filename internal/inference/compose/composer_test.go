package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"health-assist-inference-service/internal/inference/severity"
	"health-assist-inference-service/internal/llm"
)

type stubCompletion struct {
	reply      string
	err        error
	configured bool
	called     bool
	lastSystem string
}

func (s *stubCompletion) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.called = true
	s.lastSystem = req.System
	return s.reply, s.err
}

func (s *stubCompletion) Configured() bool { return s.configured }

func TestCompose_HighSeverityAppendsEmergencyBlock(t *testing.T) {
	provider := &stubCompletion{configured: true, reply: "Please rest and monitor your symptoms."}
	c := NewComposer(provider)

	got := c.Compose(context.Background(), "crushing chest pain", severity.TierHigh)

	if !strings.HasPrefix(got, "Please rest and monitor your symptoms.") {
		t.Errorf("expected model body first, got %q", got)
	}
	for _, number := range []string{"112", "108 or 102", "104", "1075", "1091"} {
		if !strings.Contains(got, number) {
			t.Errorf("emergency block missing %s:\n%s", number, got)
		}
	}
	if strings.Contains(got, "1800-599-0019") {
		t.Error("helpline block must not appear on high severity")
	}
}

func TestCompose_MediumSeverityAppendsHelplineBlock(t *testing.T) {
	provider := &stubCompletion{configured: true, reply: "This sounds manageable at home."}
	c := NewComposer(provider)

	got := c.Compose(context.Background(), "mild sore throat", severity.TierMedium)

	for _, number := range []string{"104", "1075", "1800-599-0019"} {
		if !strings.Contains(got, number) {
			t.Errorf("helpline block missing %s:\n%s", number, got)
		}
	}
	if strings.Contains(got, "112") {
		t.Error("emergency block must not appear on medium severity")
	}
}

func TestCompose_LowAndNoneUndecorated(t *testing.T) {
	provider := &stubCompletion{configured: true, reply: "Stay hydrated."}
	c := NewComposer(provider)

	for _, tier := range []severity.Tier{severity.TierNone, severity.TierLow} {
		got := c.Compose(context.Background(), "general question", tier)
		if got != "Stay hydrated." {
			t.Errorf("tier %v: expected undecorated body, got %q", tier, got)
		}
	}
}

func TestCompose_ModelFailureStillDecorates(t *testing.T) {
	provider := &stubCompletion{configured: true, err: errors.New("upstream 503")}
	c := NewComposer(provider)

	got := c.Compose(context.Background(), "severe bleeding", severity.TierHigh)

	if !strings.HasPrefix(got, apologyBody) {
		t.Errorf("expected apology body, got %q", got)
	}
	if !strings.Contains(got, "112") {
		t.Error("emergency block must be appended even when the model fails")
	}
}

func TestCompose_NoCredentialUsesApology(t *testing.T) {
	provider := &stubCompletion{configured: false}
	c := NewComposer(provider)

	got := c.Compose(context.Background(), "headache", severity.TierNone)

	if got != apologyBody {
		t.Errorf("expected apology, got %q", got)
	}
	if provider.called {
		t.Error("unconfigured provider must not be invoked")
	}
}

func TestCompose_PersonaPromptSent(t *testing.T) {
	provider := &stubCompletion{configured: true, reply: "ok"}
	c := NewComposer(provider)

	c.Compose(context.Background(), "hello", severity.TierNone)

	if !strings.Contains(provider.lastSystem, "HealthCompanion") {
		t.Error("expected persona system prompt")
	}
}

func TestDecorate_EmptyBody(t *testing.T) {
	got := Decorate("", severity.TierMedium)
	if !strings.HasPrefix(got, "\n\n**HEALTH HELPLINE INFORMATION (INDIA):**") {
		t.Errorf("unexpected decoration of empty body: %q", got)
	}
}
