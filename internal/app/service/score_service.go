// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"engagement-engine/internal/domain"
	"engagement-engine/internal/ranking"
)

// ScoringConfig holds the score engine and cache tunables.
type ScoringConfig struct {
	Weights domain.ScoreWeights
	Decay   domain.DecayParams
	TTL     time.Duration
}

// ScoreService computes decaying popularity scores, memoizes them through
// the cache port, and keeps the ranking index in step with the freshest
// snapshot of every tracked item.
type ScoreService struct {
	store  domain.CounterStore
	cache  domain.Cache // nil disables memoization
	index  *ranking.Index
	cfg    ScoringConfig
	group  singleflight.Group
	logger *zap.Logger
	now    func() time.Time
}

// NewScoreService creates a new ScoreService.
func NewScoreService(
	store domain.CounterStore,
	cache domain.Cache,
	index *ranking.Index,
	cfg ScoringConfig,
	logger *zap.Logger,
) *ScoreService {
	return &ScoreService{
		store:  store,
		cache:  cache,
		index:  index,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func scoreKey(contentID string) string {
	return "score:" + contentID
}

// GetOrCompute returns the item's score snapshot, recomputing on cache
// miss or expiry. Concurrent misses for the same id collapse into a
// single recomputation; every waiting caller receives the same snapshot.
func (s *ScoreService) GetOrCompute(ctx context.Context, contentID string) (domain.ScoreSnapshot, error) {
	if snap, ok := s.cached(ctx, contentID); ok {
		return snap, nil
	}

	v, err, shared := s.group.Do(contentID, func() (interface{}, error) {
		// Re-check under the flight: a just-finished recompute may have
		// populated the cache while this caller queued.
		if snap, ok := s.cached(ctx, contentID); ok {
			return snap, nil
		}

		item, err := s.store.GetCounters(ctx, contentID)
		if err != nil {
			return domain.ScoreSnapshot{}, err
		}

		return s.RefreshItem(ctx, item), nil
	})
	if err != nil {
		return domain.ScoreSnapshot{}, err
	}

	if shared {
		s.logger.Debug("score recompute collapsed",
			zap.String("content_id", contentID),
		)
	}

	return v.(domain.ScoreSnapshot), nil
}

// RefreshItem recomputes the score from already-fetched counters, stores
// the snapshot, and repositions the item in the ranking index. Used by the
// event path (eager recompute) and the promotion sweep.
func (s *ScoreService) RefreshItem(ctx context.Context, item *domain.ContentItem) domain.ScoreSnapshot {
	now := s.now()

	if _, clamped := item.Counters.Sanitize(); clamped {
		s.logger.Warn("negative counters clamped",
			zap.String("content_id", item.ID),
			zap.Int64("replies", item.Counters.Replies),
			zap.Int64("likes", item.Counters.Likes),
			zap.Int64("views", item.Counters.Views),
		)
	}

	snap := domain.ScoreSnapshot{
		ContentID:  item.ID,
		Score:      domain.ComputeScore(item.Counters, item.AgeDays(now), s.cfg.Weights, s.cfg.Decay),
		ComputedAt: now,
	}

	s.index.Upsert(item.ID, snap.Score, item.CreatedAt)
	s.put(ctx, snap)

	return snap
}

// Invalidate drops the cached snapshot so the next read recomputes.
// Called on event arrival: freshness beats hit rate for write-heavy items.
func (s *ScoreService) Invalidate(ctx context.Context, contentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, scoreKey(contentID)); err != nil {
		s.logger.Warn("score cache invalidation failed",
			zap.String("content_id", contentID),
			zap.Error(err),
		)
	}
}

// Forget removes every trace of an item from the scoring layer: cached
// snapshot and ranking entry. Called when the content service signals
// deletion.
func (s *ScoreService) Forget(ctx context.Context, contentID string) {
	s.index.Remove(contentID)
	s.Invalidate(ctx, contentID)
}

// cached reads a snapshot from the cache. Cache failures degrade to a
// miss; the score engine itself cannot fail.
func (s *ScoreService) cached(ctx context.Context, contentID string) (domain.ScoreSnapshot, bool) {
	if s.cache == nil {
		return domain.ScoreSnapshot{}, false
	}

	data, err := s.cache.Get(ctx, scoreKey(contentID))
	if err != nil || data == nil {
		return domain.ScoreSnapshot{}, false
	}

	var snap domain.ScoreSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("corrupt score snapshot evicted",
			zap.String("content_id", contentID),
			zap.Error(err),
		)
		_ = s.cache.Delete(ctx, scoreKey(contentID))
		return domain.ScoreSnapshot{}, false
	}

	// Belt and braces on top of the redis TTL: a snapshot that outlived
	// the configured window reads as a miss.
	if snap.Expired(s.now(), s.cfg.TTL) {
		return domain.ScoreSnapshot{}, false
	}

	return snap, true
}

func (s *ScoreService) put(ctx context.Context, snap domain.ScoreSnapshot) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, scoreKey(snap.ContentID), data, s.cfg.TTL); err != nil {
		s.logger.Warn("score cache store failed",
			zap.String("content_id", snap.ContentID),
			zap.Error(err),
		)
	}
}
