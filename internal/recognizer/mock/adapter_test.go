package mock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"health-assist-inference-service/internal/recognizer"
)

func TestAdapter_New(t *testing.T) {
	adapter := New()
	if adapter == nil {
		t.Fatal("expected non-nil adapter")
	}
}

func TestAdapter_Recognize_CyclesThroughUtterances(t *testing.T) {
	adapter := New()
	pcm := make([]byte, 3200)

	var got []string
	for i := 0; i < len(DefaultUtterances)+1; i++ {
		text, err := adapter.Recognize(context.Background(), pcm, 16000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, text)
	}

	for i := 0; i < len(DefaultUtterances); i++ {
		if got[i] != DefaultUtterances[i] {
			t.Errorf("call %d: expected %q, got %q", i, DefaultUtterances[i], got[i])
		}
	}
	if got[len(DefaultUtterances)] != DefaultUtterances[0] {
		t.Error("expected cycle back to first utterance")
	}
}

func TestAdapter_Recognize_EmptyAudio(t *testing.T) {
	adapter := New()

	_, err := adapter.Recognize(context.Background(), nil, 16000)
	if !errors.Is(err, recognizer.ErrNoSpeech) {
		t.Errorf("expected ErrNoSpeech, got %v", err)
	}
}

func TestDefaultUtterances(t *testing.T) {
	if len(DefaultUtterances) != 5 {
		t.Errorf("expected 5 default utterances, got %d", len(DefaultUtterances))
	}
	for i, utt := range DefaultUtterances {
		if utt == "" {
			t.Errorf("utterance %d is empty", i)
		}
	}
}

func TestAdapter_ThreadSafety(t *testing.T) {
	adapter := New()
	pcm := make([]byte, 3200)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				adapter.Recognize(context.Background(), pcm, 16000)
			}
		}()
	}
	wg.Wait()

	// Should not panic - just verify it completes
}
