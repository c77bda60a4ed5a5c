package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"health-assist-inference-service/internal/analytics"
	"health-assist-inference-service/internal/inference"
	"health-assist-inference-service/internal/models"
	"health-assist-inference-service/internal/observability/metrics"
)

// UserTurnPublisher publishes the user side of a turn before the pipeline
// runs. The events package provides the Kafka-backed implementation.
type UserTurnPublisher interface {
	PublishUserTurn(ctx context.Context, conversationID, userID, modality, content string) error
}

// Handler holds the API dependencies.
type Handler struct {
	orch           *inference.Orchestrator
	analytics      *analytics.Service
	userTurns      UserTurnPublisher
	maxUploadBytes int64
	metrics        *metrics.Metrics
}

// NewHandler creates the API handler. userTurns may be nil.
func NewHandler(orch *inference.Orchestrator, analyticsService *analytics.Service, userTurns UserTurnPublisher, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 16 * 1024 * 1024
	}
	return &Handler{
		orch:           orch,
		analytics:      analyticsService,
		userTurns:      userTurns,
		maxUploadBytes: maxUploadBytes,
		metrics:        metrics.DefaultMetrics,
	}
}

type sendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Content        string `json:"content"`
}

type turnResponse struct {
	Success        bool   `json:"success"`
	Reply          string `json:"reply"`
	SeverityTier   int    `json:"severityTier"`
	Severity       string `json:"severity"`
	SeverityFailed bool   `json:"severityFailed,omitempty"`
	Analysis       string `json:"analysis,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	SessionTitle   string `json:"sessionTitle,omitempty"`
}

// SendMessage handles a text turn.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	h.publishUserTurn(r, req.ConversationID, req.UserID, "text", req.Content)

	turn := h.orch.HandleText(r.Context(), inference.InboundInput{
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		Modality:       inference.ModalityText,
		Text:           req.Content,
	})

	respondJSON(w, http.StatusOK, turnResponse{
		Success:        true,
		Reply:          turn.ReplyText,
		SeverityTier:   int(turn.SeverityTier),
		Severity:       turn.SeverityTier.String(),
		SeverityFailed: turn.SeverityFailed,
		SessionTitle:   SessionTitle(req.Content),
	})
}

// UploadImage handles an image turn. The image arrives as a multipart file
// under "image"; optional journal history rides in the "history" form field
// as a JSON array.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read image")
		return
	}

	var history []models.HistoryEntry
	if raw := r.FormValue("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			respondError(w, http.StatusBadRequest, "invalid history")
			return
		}
	}

	conversationID := r.FormValue("conversationId")
	userID := r.FormValue("userId")
	h.publishUserTurn(r, conversationID, userID, "image", header.Filename)

	turn := h.orch.HandleImage(r.Context(), inference.InboundInput{
		ConversationID: conversationID,
		UserID:         userID,
		Modality:       inference.ModalityImage,
		Image:          image,
		ImageMIME:      header.Header.Get("Content-Type"),
		History:        history,
	})

	respondJSON(w, http.StatusOK, turnResponse{
		Success:      true,
		Reply:        turn.ReplyText,
		SeverityTier: int(turn.SeverityTier),
		Severity:     turn.SeverityTier.String(),
		Analysis:     turn.SourceAnalysisText,
	})
}

type sendAudioRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	AudioBase64    string `json:"audioBase64"`
}

// SendAudio handles a voice turn. Audio arrives either as a multipart file
// under "audio" or as base64 JSON.
func (h *Handler) SendAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var raw []byte
	var conversationID, userID string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, _, err := r.FormFile("audio")
		if err != nil {
			respondError(w, http.StatusBadRequest, "audio file is required")
			return
		}
		defer file.Close()

		raw, err = io.ReadAll(file)
		if err != nil {
			respondError(w, http.StatusBadRequest, "could not read audio")
			return
		}
		conversationID = r.FormValue("conversationId")
		userID = r.FormValue("userId")
	} else {
		var req sendAudioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid base64 audio")
			return
		}
		raw = decoded
		conversationID = req.ConversationID
		userID = req.UserID
	}

	if len(raw) == 0 {
		respondError(w, http.StatusBadRequest, "empty audio payload")
		return
	}

	h.metrics.RecordAudioReceived(len(raw))
	h.publishUserTurn(r, conversationID, userID, "voice", "")

	turn := h.orch.HandleAudio(r.Context(), inference.InboundInput{
		ConversationID: conversationID,
		UserID:         userID,
		Modality:       inference.ModalityVoice,
		Audio:          raw,
	})

	title := ""
	if turn.SourceAnalysisText != "" {
		title = SessionTitle(turn.SourceAnalysisText)
	}

	respondJSON(w, http.StatusOK, turnResponse{
		Success:      true,
		Reply:        turn.ReplyText,
		SeverityTier: int(turn.SeverityTier),
		Severity:     turn.SeverityTier.String(),
		Transcript:   turn.SourceAnalysisText,
		SessionTitle: title,
	})
}

type logsRequest struct {
	Logs []models.HistoryEntry `json:"logs"`
}

// SmartAnalysis runs pattern analysis over submitted health logs.
func (h *Handler) SmartAnalysis(w http.ResponseWriter, r *http.Request) {
	var req logsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report := h.analytics.AnalyzePatterns(r.Context(), req.Logs)

	respondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		analytics.PatternReport
	}{Success: true, PatternReport: report})
}

type sentimentRequest struct {
	Messages []analytics.Message `json:"messages"`
}

// Sentiment scores submitted messages.
func (h *Handler) Sentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Success    bool                       `json:"success"`
		Sentiments []analytics.SentimentPoint `json:"sentiments"`
	}{Success: true, Sentiments: analytics.SentimentSeries(req.Messages)})
}

// Predictions derives trend predictions from submitted health logs.
func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	var req logsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Success     bool                   `json:"success"`
		Predictions []analytics.Prediction `json:"predictions"`
	}{Success: true, Predictions: analytics.PredictTrends(req.Logs)})
}

// LBHealth answers load balancer probes.
func (h *Handler) LBHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) publishUserTurn(r *http.Request, conversationID, userID, modality, content string) {
	if h.userTurns == nil || conversationID == "" {
		return
	}
	if err := h.userTurns.PublishUserTurn(r.Context(), conversationID, userID, modality, content); err != nil {
		log.Warn().Err(err).Str("conversationId", conversationID).Msg("Failed to publish user turn")
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}
