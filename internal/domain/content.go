// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// Tier represents the promotion state of a content item.
// Items advance one way: post -> spot -> challenge.
type Tier string

const (
	TierPost      Tier = "post"
	TierSpot      Tier = "spot"
	TierChallenge Tier = "challenge"
)

// rank maps tiers to their ordering for monotonicity checks.
func (t Tier) rank() int {
	switch t {
	case TierPost:
		return 0
	case TierSpot:
		return 1
	case TierChallenge:
		return 2
	default:
		return -1
	}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t.rank() >= 0
}

// Next returns the tier an item in t advances to, and false for the
// terminal tier (challenge) or unknown tiers.
func (t Tier) Next() (Tier, bool) {
	switch t {
	case TierPost:
		return TierSpot, true
	case TierSpot:
		return TierChallenge, true
	default:
		return t, false
	}
}

// CanAdvanceTo reports whether the t -> next transition is legal.
// Promotions are single-step and never regress.
func (t Tier) CanAdvanceTo(next Tier) bool {
	n, ok := t.Next()
	return ok && n == next
}

// Counters holds the raw engagement counters for a content item.
// Counters are owned and incremented by the external content service;
// this engine only reads them.
type Counters struct {
	Replies int64 `json:"replies"`
	Likes   int64 `json:"likes"`
	Views   int64 `json:"views"`
}

// Sanitize clamps negative counters to zero. The second return value
// reports whether any clamping occurred so callers can log a
// data-integrity warning.
func (c Counters) Sanitize() (Counters, bool) {
	clamped := false
	if c.Replies < 0 {
		c.Replies = 0
		clamped = true
	}
	if c.Likes < 0 {
		c.Likes = 0
		clamped = true
	}
	if c.Views < 0 {
		c.Views = 0
		clamped = true
	}
	return c, clamped
}

// ContentItem is a tracked content item as seen by the engine:
// identity, creation time, current tier, and the externally-owned counters.
type ContentItem struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Tier      Tier      `json:"tier"`
	Counters  Counters  `json:"counters"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewContentItem creates a content item starting in the post tier.
func NewContentItem(id, authorID string, createdAt time.Time) *ContentItem {
	return &ContentItem{
		ID:        id,
		AuthorID:  authorID,
		Tier:      TierPost,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// AgeDays returns the item's age in fractional days at the given instant.
// Negative ages (clock skew) clamp to 0.
func (c *ContentItem) AgeDays(now time.Time) float64 {
	days := now.Sub(c.CreatedAt).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

// EventKind identifies the engagement signal carried by an event.
type EventKind string

const (
	EventReply EventKind = "reply"
	EventLike  EventKind = "like"
	EventView  EventKind = "view"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventReply, EventLike, EventView:
		return true
	default:
		return false
	}
}

// EngagementEvent is a single raw interaction reported by the content
// service after it has incremented its counters.
type EngagementEvent struct {
	Kind       EventKind `json:"kind"`
	ContentID  string    `json:"content_id"`
	ActorID    string    `json:"actor_id"`
	ReplyID    string    `json:"reply_id,omitempty"` // set for reply events
	OccurredAt time.Time `json:"occurred_at"`

	// First-touch registration fields. The content service sends these on
	// the first event for an item so the engine can start tracking it.
	AuthorID         string    `json:"author_id,omitempty"`
	ContentCreatedAt time.Time `json:"content_created_at,omitempty"`
}

// ScoreSnapshot is a computed score at a point in time. Snapshots are
// derived data: always reconstructible from counters plus creation time,
// never the system of record.
type ScoreSnapshot struct {
	ContentID  string    `json:"content_id"`
	Score      float64   `json:"score"`
	ComputedAt time.Time `json:"computed_at"`
}

// Expired reports whether the snapshot is older than ttl at the given instant.
func (s ScoreSnapshot) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.ComputedAt) >= ttl
}
