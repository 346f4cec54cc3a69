package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"engagement-engine/internal/domain"
	"engagement-engine/internal/ranking"
)

// RankedItem is one row of the global ranking, hydrated with the item's
// current tier for the read API.
type RankedItem struct {
	Rank      int         `json:"rank"`
	ContentID string      `json:"content_id"`
	Score     float64     `json:"score"`
	Tier      domain.Tier `json:"tier"`
	CreatedAt time.Time   `json:"created_at"`
}

// RankService serves the read side: global rankings, single-item scores
// and tiers, and the promotion audit trail.
type RankService struct {
	store  domain.CounterStore
	promos domain.PromotionLog
	scores *ScoreService
	index  *ranking.Index
	logger *zap.Logger
}

// NewRankService creates a new RankService.
func NewRankService(
	store domain.CounterStore,
	promos domain.PromotionLog,
	scores *ScoreService,
	index *ranking.Index,
	logger *zap.Logger,
) *RankService {
	return &RankService{
		store:  store,
		promos: promos,
		scores: scores,
		index:  index,
		logger: logger,
	}
}

// GetTopRanked returns the n highest-ranked items with their tiers.
// Tier lookups that fail (item deleted between index read and store read)
// drop the row rather than failing the page.
func (s *RankService) GetTopRanked(ctx context.Context, n int) ([]RankedItem, error) {
	entries := s.index.TopN(n)
	out := make([]RankedItem, 0, len(entries))

	for _, e := range entries {
		item, err := s.store.GetCounters(ctx, e.ContentID)
		if err != nil {
			s.logger.Debug("ranked item dropped from page",
				zap.String("content_id", e.ContentID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, RankedItem{
			Rank:      len(out) + 1,
			ContentID: e.ContentID,
			Score:     e.Score,
			Tier:      item.Tier,
			CreatedAt: e.CreatedAt,
		})
	}

	return out, nil
}

// GetScore returns the item's current score snapshot, recomputing if the
// cached one expired.
func (s *RankService) GetScore(ctx context.Context, contentID string) (domain.ScoreSnapshot, error) {
	return s.scores.GetOrCompute(ctx, contentID)
}

// GetTier returns the item's current tier and its standing among all
// tracked items (fraction of others scoring strictly lower).
func (s *RankService) GetTier(ctx context.Context, contentID string) (domain.Tier, float64, error) {
	item, err := s.store.GetCounters(ctx, contentID)
	if err != nil {
		return "", 0, err
	}

	pct, ok := s.index.PercentileRank(contentID)
	if !ok {
		// Not yet ranked (e.g. tracked but never scored since restart);
		// compute on demand so the answer is always complete.
		s.scores.RefreshItem(ctx, item)
		pct, _ = s.index.PercentileRank(contentID)
	}

	return item.Tier, pct, nil
}

// GetPromotions returns the item's promotion audit trail, oldest first.
// A tracked item with no promotions yields an empty slice, not an error.
func (s *RankService) GetPromotions(ctx context.Context, contentID string) ([]domain.PromotionRecord, error) {
	if _, err := s.store.GetCounters(ctx, contentID); err != nil {
		return nil, err
	}
	return s.promos.ListByContent(ctx, contentID)
}
