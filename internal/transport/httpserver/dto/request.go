// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"time"

	"engagement-engine/internal/domain"
)

// EventRequest represents the body of an engagement event report.
// author_id and content_created_at are only meaningful on the first event
// for a content id; later events may omit them.
type EventRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=reply like view"`
	ContentID string `json:"content_id" validate:"required,max=64"`
	ActorID   string `json:"actor_id" validate:"omitempty,max=64"`
	ReplyID   string `json:"reply_id" validate:"omitempty,max=64"`

	OccurredAt       time.Time `json:"occurred_at" validate:"omitempty"`
	AuthorID         string    `json:"author_id" validate:"omitempty,max=64"`
	ContentCreatedAt time.Time `json:"content_created_at" validate:"omitempty"`
}

// ToEvent converts EventRequest to a domain.EngagementEvent.
// A missing occurred_at defaults to the server clock.
func (r *EventRequest) ToEvent() domain.EngagementEvent {
	occurredAt := r.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return domain.EngagementEvent{
		Kind:             domain.EventKind(r.Kind),
		ContentID:        r.ContentID,
		ActorID:          r.ActorID,
		ReplyID:          r.ReplyID,
		OccurredAt:       occurredAt,
		AuthorID:         r.AuthorID,
		ContentCreatedAt: r.ContentCreatedAt,
	}
}

// RankingsRequest represents the query parameters for the rankings page.
type RankingsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// LimitOrDefault returns the requested page size, defaulting to 20.
func (r *RankingsRequest) LimitOrDefault() int {
	if r.Limit > 0 {
		return r.Limit
	}
	return 20
}
