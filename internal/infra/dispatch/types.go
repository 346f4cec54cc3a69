package dispatch

import (
	"time"

	"engagement-engine/internal/domain"
)

// IntentRequest is the wire shape posted to the dispatch collaborator.
type IntentRequest struct {
	UserID    string            `json:"user_id"`
	Kind      string            `json:"kind"`
	ContentID string            `json:"content_id"`
	Payload   map[string]string `json:"payload,omitempty"`
	SentAt    string            `json:"sent_at"`
}

// fromIntent converts a domain intent to its wire shape.
func fromIntent(intent domain.NotificationIntent) IntentRequest {
	return IntentRequest{
		UserID:    intent.UserID,
		Kind:      string(intent.Kind),
		ContentID: intent.ContentID,
		Payload:   intent.Payload,
		SentAt:    time.Now().UTC().Format(time.RFC3339),
	}
}
