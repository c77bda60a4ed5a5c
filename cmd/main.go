package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"health-assist-inference-service/internal/analytics"
	apihttp "health-assist-inference-service/internal/api/http"
	"health-assist-inference-service/internal/app"
	"health-assist-inference-service/internal/config"
	"health-assist-inference-service/internal/events"
	"health-assist-inference-service/internal/inference"
	"health-assist-inference-service/internal/inference/audio"
	"health-assist-inference-service/internal/inference/compose"
	"health-assist-inference-service/internal/inference/severity"
	"health-assist-inference-service/internal/inference/transcribe"
	"health-assist-inference-service/internal/inference/vision"
	"health-assist-inference-service/internal/llm"
	"health-assist-inference-service/internal/observability"
	"health-assist-inference-service/internal/observability/metrics"
	"health-assist-inference-service/internal/recognizer"
	googlestt "health-assist-inference-service/internal/recognizer/google"
	mockstt "health-assist-inference-service/internal/recognizer/mock"
)

func main() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application startup failed")
	}

	ctx := context.Background()

	// Remote completion providers. Both speak the OpenAI chat-completions
	// wire format; only base URL, key and model differ.
	chatProvider := llm.New(llm.Config{
		APIKey:  cfg.Providers.GroqAPIKey,
		BaseURL: cfg.Providers.GroqBaseURL,
		Model:   cfg.Providers.GroqModel,
		Timeout: cfg.Providers.RequestTimeout,
	})
	visionProvider := llm.New(llm.Config{
		APIKey:  cfg.Providers.GeminiAPIKey,
		BaseURL: cfg.Providers.GeminiBaseURL,
		Model:   cfg.Providers.GeminiModel,
		Timeout: cfg.Providers.RequestTimeout,
	})

	local, closeRecognizer := buildRecognizer(ctx, cfg)
	defer closeRecognizer()

	publisher := events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicUser:      cfg.Kafka.TopicUser,
		TopicAssistant: cfg.Kafka.TopicAssistant,
		Principal:      cfg.Service.Principal,
	})
	defer publisher.Close()

	orchestrator := inference.NewOrchestrator(
		audio.NewNormalizer(cfg.Audio.FFmpegPath, cfg.Audio.SpillDir),
		transcribe.NewRouter(local, chatProvider, cfg.Audio.MaxInlineBase64),
		vision.NewAnalyzer(visionProvider),
		severity.NewClassifier(chatProvider),
		compose.NewComposer(chatProvider),
		publisher,
		metrics.DefaultMetrics,
	)

	handler := apihttp.NewHandler(
		orchestrator,
		analytics.NewService(chatProvider),
		publisher,
		cfg.Audio.MaxUploadBytes,
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      apihttp.NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Starting HTTP API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// gRPC health service for load balancer probes.
	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Service.GRPCPort).Msg("Failed to listen")
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(observability.UnaryServerInterceptor()),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("health.assist.InferenceService", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		log.Info().Str("port", cfg.Service.GRPCPort).Msg("Starting gRPC health server")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("gRPC serve failed")
		}
	}()

	// /readyz mirrors the gRPC health state: not ready until the listeners
	// are up, not ready again as soon as shutdown begins.
	var ready atomic.Bool
	obsServer := observability.NewServer(":"+cfg.Service.MetricsPort, ready.Load)
	obsServer.Start()
	ready.Store(true)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	ready.Store(false)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown error")
	}
	grpcServer.GracefulStop()
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability shutdown error")
	}
	application.Shutdown()
}

// buildRecognizer selects the local recognizer backend from configuration.
// Unknown providers and Google client failures fall back to the mock so the
// service still starts without cloud credentials.
func buildRecognizer(ctx context.Context, cfg *config.Configuration) (recognizer.Recognizer, func()) {
	switch cfg.Recognizer.Provider {
	case "google":
		adapter, err := googlestt.New(ctx, cfg.Recognizer.LanguageCode)
		if err != nil {
			log.Warn().Err(err).Msg("Google recognizer unavailable, using mock")
			return mockstt.New(), func() {}
		}
		log.Info().Str("languageCode", cfg.Recognizer.LanguageCode).Msg("Using Google Cloud Speech recognizer")
		return adapter, func() {
			if err := adapter.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing recognizer")
			}
		}
	default:
		log.Info().Msg("Using mock recognizer")
		return mockstt.New(), func() {}
	}
}
