package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"engagement-engine/internal/domain"
)

// Repository implements domain.CounterStore and domain.PromotionLog using
// PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// upstream wraps a storage failure so callers can branch on
// domain.ErrUpstreamUnavailable and defer the item to the next cycle.
func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, op, err)
}

// GetCounters retrieves a single item's counters, creation time, and tier.
func (r *Repository) GetCounters(ctx context.Context, contentID string) (*domain.ContentItem, error) {
	var model ContentModel
	err := r.db.WithContext(ctx).Where("id = ?", contentID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotTracked
		}

		return nil, upstream("getting counters", err)
	}

	return model.ToDomain(), nil
}

// ListTracked returns every item currently under tracking.
func (r *Repository) ListTracked(ctx context.Context) ([]*domain.ContentItem, error) {
	var models []ContentModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, upstream("listing tracked items", err)
	}

	items := make([]*domain.ContentItem, len(models))
	for i, m := range models {
		items[i] = m.ToDomain()
	}

	return items, nil
}

// ListByTier returns tracked items in the given tier.
func (r *Repository) ListByTier(ctx context.Context, tier domain.Tier) ([]*domain.ContentItem, error) {
	var models []ContentModel
	err := r.db.WithContext(ctx).Where("tier = ?", string(tier)).Find(&models).Error
	if err != nil {
		return nil, upstream("listing items by tier", err)
	}

	items := make([]*domain.ContentItem, len(models))
	for i, m := range models {
		items[i] = m.ToDomain()
	}

	return items, nil
}

// UpdateTier advances an item's tier. The WHERE clause pins the expected
// current tier, so a racing update cannot regress or skip a tier: the
// losing writer simply matches zero rows.
func (r *Repository) UpdateTier(ctx context.Context, contentID string, tier domain.Tier) error {
	item, err := r.GetCounters(ctx, contentID)
	if err != nil {
		return err
	}

	if !item.Tier.CanAdvanceTo(tier) {
		return fmt.Errorf("illegal tier transition %s -> %s for content %s", item.Tier, tier, contentID)
	}

	res := r.db.WithContext(ctx).
		Model(&ContentModel{}).
		Where("id = ? AND tier = ?", contentID, string(item.Tier)).
		Updates(map[string]interface{}{
			"tier":       string(tier),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return upstream("updating tier", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race to a concurrent promotion; nothing to do.
		return nil
	}

	return nil
}

// Track registers an item the first time it receives an event. Re-tracking
// an existing id is a no-op.
func (r *Repository) Track(ctx context.Context, item *domain.ContentItem) error {
	model := FromDomain(item)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(model).Error
	if err != nil {
		return upstream("tracking content", err)
	}

	return nil
}

// Delete removes an item from tracking. Idempotent.
func (r *Repository) Delete(ctx context.Context, contentID string) error {
	err := r.db.WithContext(ctx).Where("id = ?", contentID).Delete(&ContentModel{}).Error
	if err != nil {
		return upstream("deleting content", err)
	}

	return nil
}

// Append writes a promotion record. Returns false when a record for the
// same (content, from, to) transition already exists — the ON CONFLICT
// clause makes the append idempotent under concurrent sweeps.
func (r *Repository) Append(ctx context.Context, rec domain.PromotionRecord) (bool, error) {
	model := FromPromotionRecord(rec)

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "content_id"}, {Name: "from_tier"}, {Name: "to_tier"},
		},
		DoNothing: true,
	}).Create(model)
	if res.Error != nil {
		return false, upstream("appending promotion record", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// ListByContent returns all recorded transitions for one item, oldest first.
func (r *Repository) ListByContent(ctx context.Context, contentID string) ([]domain.PromotionRecord, error) {
	var models []PromotionRecordModel
	err := r.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("executed_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, upstream("listing promotion records", err)
	}

	records := make([]domain.PromotionRecord, len(models))
	for i, m := range models {
		records[i] = m.ToDomain()
	}

	return records, nil
}
