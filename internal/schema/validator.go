// Package schema validates turn events before they leave the service.
package schema

import (
	"fmt"

	"health-assist-inference-service/internal/models"
)

// Validator checks turn events for the fields downstream consumers require.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// ValidateUserTurn checks a user turn event.
func (v *Validator) ValidateUserTurn(ev models.UserTurnEvent) error {
	if ev.EventType == "" {
		return fmt.Errorf("user turn event: missing eventType")
	}
	if ev.ConversationID == "" {
		return fmt.Errorf("user turn event: missing conversationId")
	}
	if ev.TurnID == "" {
		return fmt.Errorf("user turn event: missing turnId")
	}
	if ev.Timestamp <= 0 {
		return fmt.Errorf("user turn event: missing timestamp")
	}
	switch ev.Modality {
	case "text", "image", "voice":
	default:
		return fmt.Errorf("user turn event: invalid modality %q", ev.Modality)
	}
	return nil
}

// ValidateAssistantTurn checks an assistant turn event.
func (v *Validator) ValidateAssistantTurn(ev models.AssistantTurnEvent) error {
	if ev.EventType == "" {
		return fmt.Errorf("assistant turn event: missing eventType")
	}
	if ev.ConversationID == "" {
		return fmt.Errorf("assistant turn event: missing conversationId")
	}
	if ev.TurnID == "" {
		return fmt.Errorf("assistant turn event: missing turnId")
	}
	if ev.Timestamp <= 0 {
		return fmt.Errorf("assistant turn event: missing timestamp")
	}
	if ev.Content == "" {
		return fmt.Errorf("assistant turn event: missing content")
	}
	if ev.SeverityTier < 0 || ev.SeverityTier > 3 {
		return fmt.Errorf("assistant turn event: severity tier %d out of range", ev.SeverityTier)
	}
	return nil
}
