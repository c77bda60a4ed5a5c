// Package models defines the data structures for conversation turn events.
package models

// HistoryEntry is one prior health-journal record supplied as context to the
// vision and analytics pipelines.
type HistoryEntry struct {
	Date        string `json:"date"`
	Symptom     string `json:"symptom"`
	Severity    int    `json:"severity"`
	Description string `json:"description"`
}

// UserTurnEvent records the user side of a conversation turn.
type UserTurnEvent struct {
	EventType      string `json:"eventType"`
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	TurnID         string `json:"turnId"`
	Timestamp      int64  `json:"timestamp"`
	Modality       string `json:"modality"` // text, image, voice
	Content        string `json:"content"`
}

// AssistantTurnEvent records the assistant side of a conversation turn,
// including the severity tier attached to the reply.
type AssistantTurnEvent struct {
	EventType          string `json:"eventType"`
	ConversationID     string `json:"conversationId"`
	UserID             string `json:"userId"`
	TurnID             string `json:"turnId"`
	Timestamp          int64  `json:"timestamp"`
	Sequence           uint64 `json:"sequence"`
	Content            string `json:"content"`
	SeverityTier       int    `json:"severityTier"`
	SeverityFailed     bool   `json:"severityFailed"`
	SourceAnalysisText string `json:"sourceAnalysisText,omitempty"`
}
