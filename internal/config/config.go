// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceConfig holds service identity and listener settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	GRPCPort    string
	MetricsPort string
}

// ProviderConfig holds remote completion provider settings. The chat and
// vision providers both speak the OpenAI chat-completions wire format; only
// the base URL, key and model differ.
type ProviderConfig struct {
	GroqAPIKey     string
	GroqBaseURL    string
	GroqModel      string
	GeminiAPIKey   string
	GeminiBaseURL  string
	GeminiModel    string
	RequestTimeout time.Duration
}

// RecognizerConfig selects and tunes the local speech recognizer.
type RecognizerConfig struct {
	Provider     string // "google" or "mock"
	LanguageCode string
	SampleRateHz int
}

// AudioConfig bounds audio ingestion and conversion.
type AudioConfig struct {
	MaxUploadBytes  int64
	MaxInlineBase64 int // cap on base64 payload sent to the remote transcriber
	FFmpegPath      string
	SpillDir        string
}

// KafkaConfig holds turn event publishing settings.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicUser      string
	TopicAssistant string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel string
}

// Configuration is the root config for the service.
type Configuration struct {
	Service       ServiceConfig
	Providers     ProviderConfig
	Recognizer    RecognizerConfig
	Audio         AudioConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// Load reads configuration from the environment, applying defaults.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Principal:   envOrDefault("SERVICE_PRINCIPAL", "svc-health-inference"),
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:    envOrDefault("GRPC_PORT", "50051"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Providers: ProviderConfig{
			GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
			GroqBaseURL:    envOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			GroqModel:      envOrDefault("GROQ_MODEL", "llama3-8b-8192"),
			GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
			GeminiBaseURL:  envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
			GeminiModel:    envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
			RequestTimeout: envDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
		Recognizer: RecognizerConfig{
			Provider:     envOrDefault("RECOGNIZER_PROVIDER", "mock"),
			LanguageCode: envOrDefault("RECOGNIZER_LANGUAGE_CODE", "en-US"),
			SampleRateHz: envInt("RECOGNIZER_SAMPLE_RATE_HZ", 16000),
		},
		Audio: AudioConfig{
			MaxUploadBytes:  envInt64("AUDIO_MAX_UPLOAD_BYTES", 16*1024*1024),
			MaxInlineBase64: envInt("AUDIO_MAX_INLINE_BASE64", 256*1024),
			FFmpegPath:      envOrDefault("FFMPEG_PATH", "ffmpeg"),
			SpillDir:        envOrDefault("AUDIO_SPILL_DIR", os.TempDir()),
		},
		Kafka: KafkaConfig{
			Enabled:        envBool("KAFKA_ENABLED", false),
			Brokers:        envList("KAFKA_BROKERS"),
			TopicUser:      envOrDefault("KAFKA_TOPIC_USER_TURN", "conversation.turn.user"),
			TopicAssistant: envOrDefault("KAFKA_TOPIC_ASSISTANT_TURN", "conversation.turn.assistant"),
		},
		Observability: ObservabilityConfig{
			LogLevel: envOrDefault("ZEROLOG_LOG_LEVEL", "info"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
