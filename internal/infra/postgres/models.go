package postgres

import (
	"time"

	"engagement-engine/internal/domain"
)

// ContentModel is the GORM model for the contents table. The counter
// columns belong to the content service; this engine writes only the tier
// column (and the row itself when an item first enters tracking).
type ContentModel struct {
	ID       string `gorm:"type:varchar(64);primaryKey"`
	AuthorID string `gorm:"type:varchar(64);not null;index"`
	Tier     string `gorm:"type:varchar(20);not null;default:'post';index"`

	// Counters (monotonically non-decreasing, externally owned)
	ReplyCount int64 `gorm:"default:0"`
	LikeCount  int64 `gorm:"default:0"`
	ViewCount  int64 `gorm:"default:0"`

	// Timestamps
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for ContentModel.
func (ContentModel) TableName() string {
	return "contents"
}

// ToDomain converts ContentModel to domain.ContentItem.
func (m *ContentModel) ToDomain() *domain.ContentItem {
	return &domain.ContentItem{
		ID:       m.ID,
		AuthorID: m.AuthorID,
		Tier:     domain.Tier(m.Tier),
		Counters: domain.Counters{
			Replies: m.ReplyCount,
			Likes:   m.LikeCount,
			Views:   m.ViewCount,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain creates a ContentModel from domain.ContentItem.
func FromDomain(c *domain.ContentItem) *ContentModel {
	return &ContentModel{
		ID:         c.ID,
		AuthorID:   c.AuthorID,
		Tier:       string(c.Tier),
		ReplyCount: c.Counters.Replies,
		LikeCount:  c.Counters.Likes,
		ViewCount:  c.Counters.Views,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// PromotionRecordModel is the GORM model for the promotion_records table.
// The unique index over (content_id, from_tier, to_tier) enforces the
// at-most-one-record-per-transition invariant at the storage layer.
type PromotionRecordModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	ContentID  string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_promotion_transition"`
	FromTier   string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_promotion_transition"`
	ToTier     string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_promotion_transition"`
	ExecutedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for PromotionRecordModel.
func (PromotionRecordModel) TableName() string {
	return "promotion_records"
}

// ToDomain converts PromotionRecordModel to domain.PromotionRecord.
func (m *PromotionRecordModel) ToDomain() domain.PromotionRecord {
	return domain.PromotionRecord{
		ContentID:  m.ContentID,
		FromTier:   domain.Tier(m.FromTier),
		ToTier:     domain.Tier(m.ToTier),
		ExecutedAt: m.ExecutedAt,
	}
}

// FromPromotionRecord creates a PromotionRecordModel from the domain record.
func FromPromotionRecord(r domain.PromotionRecord) *PromotionRecordModel {
	return &PromotionRecordModel{
		ContentID:  r.ContentID,
		FromTier:   string(r.FromTier),
		ToTier:     string(r.ToTier),
		ExecutedAt: r.ExecutedAt,
	}
}
