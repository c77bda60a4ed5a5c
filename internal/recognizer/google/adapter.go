// Package google provides a Google Cloud Speech-to-Text recognizer.
package google

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"health-assist-inference-service/internal/recognizer"
)

// Adapter implements recognizer.Recognizer using Google Cloud Speech-to-Text
// unary recognition.
type Adapter struct {
	client       *speech.Client
	languageCode string
}

// New creates a new Google recognizer.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, languageCode string) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &Adapter{client: c, languageCode: languageCode}, nil
}

// Recognize sends the PCM buffer for one-shot recognition and returns the
// top alternative across all result segments.
func (a *Adapter) Recognize(ctx context.Context, pcm []byte, sampleRateHz int) (string, error) {
	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(sampleRateHz),
			LanguageCode:    a.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return "", recognizer.ErrUnreachable
	}

	var sb strings.Builder
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(r.Alternatives[0].Transcript)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", recognizer.ErrNoSpeech
	}
	return text, nil
}

// Close releases the underlying gRPC client.
func (a *Adapter) Close() error {
	return a.client.Close()
}
