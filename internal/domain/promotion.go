package domain

import (
	"fmt"
	"time"
)

// PromotionRecord is one entry in the append-only audit of tier
// transitions. A content item appears at most once per (from, to) pair;
// the unique constraint in storage plus the execution guard protect that
// invariant.
type PromotionRecord struct {
	ContentID  string    `json:"content_id"`
	FromTier   Tier      `json:"from_tier"`
	ToTier     Tier      `json:"to_tier"`
	ExecutedAt time.Time `json:"executed_at"`
}

// NewPromotionRecord builds a record for a legal transition. Returns an
// error for regressions, skipped tiers, or unknown tiers, so a bad record
// can never be handed to the promotion log.
func NewPromotionRecord(contentID string, from, to Tier, executedAt time.Time) (PromotionRecord, error) {
	if !from.CanAdvanceTo(to) {
		return PromotionRecord{}, fmt.Errorf("illegal tier transition %s -> %s for content %s", from, to, contentID)
	}
	return PromotionRecord{
		ContentID:  contentID,
		FromTier:   from,
		ToTier:     to,
		ExecutedAt: executedAt,
	}, nil
}

// GuardKey returns the execution-guard key for this transition. Guard
// entries expire on their own; a crash between guard set and record write
// self-heals after the TTL lapses.
func (r PromotionRecord) GuardKey() string {
	return fmt.Sprintf("promotion:%s:%s:%s", r.ContentID, r.FromTier, r.ToTier)
}
