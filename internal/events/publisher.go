// Package events publishes conversation turn events to Kafka for downstream
// storage and analytics consumers.
package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"health-assist-inference-service/internal/inference"
	"health-assist-inference-service/internal/models"
	"health-assist-inference-service/internal/observability/metrics"
	"health-assist-inference-service/internal/schema"
)

const (
	eventTypeUserTurn      = "conversation.turn.user"
	eventTypeAssistantTurn = "conversation.turn.assistant"
)

// Publisher publishes turn events to separate Kafka topics. It implements
// the orchestrator's TurnSink; with Kafka disabled it degrades to log-only
// mode and every publish succeeds.
type Publisher struct {
	writerUser      *kafka.Writer
	writerAssistant *kafka.Writer
	principal       string
	topicUser       string
	topicAssistant  string
	enabled         bool
	metrics         *metrics.Metrics
	validator       *schema.Validator
	sequence        atomic.Uint64
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicUser      string
	TopicAssistant string
	Principal      string
	Enabled        bool
}

// New creates a new Kafka turn publisher with separate topics for user and
// assistant turns.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics
	v := schema.New()

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled:   false,
			metrics:   m,
			validator: v,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicUser:      cfg.TopicUser,
			topicAssistant: cfg.TopicAssistant,
			enabled:        false,
			metrics:        m,
			validator:      v,
		}
	}

	// Custom dialer with longer timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerUser := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicUser,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerAssistant := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicAssistant,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicUser", cfg.TopicUser).
		Str("topicAssistant", cfg.TopicAssistant).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerUser:      writerUser,
		writerAssistant: writerAssistant,
		principal:       cfg.Principal,
		topicUser:       cfg.TopicUser,
		topicAssistant:  cfg.TopicAssistant,
		enabled:         true,
		metrics:         m,
		validator:       v,
	}
}

// PublishUserTurn publishes a user turn event keyed by conversation ID.
func (p *Publisher) PublishUserTurn(ctx context.Context, conversationID, userID, modality, content string) error {
	ev := models.UserTurnEvent{
		EventType:      eventTypeUserTurn,
		ConversationID: conversationID,
		UserID:         userID,
		TurnID:         uuid.NewString(),
		Timestamp:      time.Now().UnixMilli(),
		Modality:       modality,
		Content:        content,
	}

	if err := p.validator.ValidateUserTurn(ev); err != nil {
		log.Error().Err(err).Str("conversationId", conversationID).Msg("Invalid user turn event")
		return err
	}

	return p.publish(ctx, p.writerUser, p.topicUser, "user", conversationID, ev)
}

// PublishAssistantTurn publishes an assistant turn event keyed by
// conversation ID. Implements the orchestrator's TurnSink.
func (p *Publisher) PublishAssistantTurn(ctx context.Context, turn inference.AssistantTurn) error {
	ev := models.AssistantTurnEvent{
		EventType:          eventTypeAssistantTurn,
		ConversationID:     turn.ConversationID,
		UserID:             turn.UserID,
		TurnID:             uuid.NewString(),
		Timestamp:          time.Now().UnixMilli(),
		Sequence:           p.sequence.Add(1),
		Content:            turn.ReplyText,
		SeverityTier:       int(turn.SeverityTier),
		SeverityFailed:     turn.SeverityFailed,
		SourceAnalysisText: turn.SourceAnalysisText,
	}

	if err := p.validator.ValidateAssistantTurn(ev); err != nil {
		log.Error().Err(err).Str("conversationId", turn.ConversationID).Msg("Invalid assistant turn event")
		return err
	}

	return p.publish(ctx, p.writerAssistant, p.topicAssistant, "assistant", turn.ConversationID, ev)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerUser != nil {
		if e := p.writerUser.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing user turn writer")
			err = e
		}
	}
	if p.writerAssistant != nil {
		if e := p.writerAssistant.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing assistant turn writer")
			err = e
		}
	}
	return err
}
