package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// Config holds the settings for one provider endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client is an OpenAI-wire completion client. It implements both
// TextCompletion and VisionCompletion.
type Client struct {
	openai     openai.Client
	model      string
	configured bool
}

// New creates a completion client. A missing API key yields a client in the
// unconfigured state rather than an error, matching the degrade-not-crash
// policy for absent credentials.
func New(cfg Config) *Client {
	if cfg.APIKey == "" {
		return &Client{configured: false, model: cfg.Model}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		openai:     openai.NewClient(opts...),
		model:      cfg.Model,
		configured: true,
	}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.configured
}

// Complete issues one chat completion and returns the assistant content.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices in response")
	}

	log.Debug().
		Str("model", c.model).
		Dur("duration", time.Since(start)).
		Int64("promptTokens", resp.Usage.PromptTokens).
		Int64("completionTokens", resp.Usage.CompletionTokens).
		Msg("Chat completion finished")

	return resp.Choices[0].Message.Content, nil
}

// AnalyzeImage sends a text prompt plus inline image bytes as a content-parts
// message and returns the model's narrative text.
func (c *Client) AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}),
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
		Temperature: openai.Float(0.4),
		MaxTokens:   openai.Int(1000),
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision completion: no choices in response")
	}

	log.Debug().
		Str("model", c.model).
		Dur("duration", time.Since(start)).
		Int("imageBytes", len(image)).
		Msg("Vision completion finished")

	return resp.Choices[0].Message.Content, nil
}
