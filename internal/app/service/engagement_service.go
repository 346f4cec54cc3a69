package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"engagement-engine/internal/domain"
)

// EngagementService handles incoming engagement events: it begins tracking
// new items, keeps scores and ranking fresh, and feeds the notification
// trigger. Each event is an independent unit of work; events for different
// items never serialize on each other.
type EngagementService struct {
	store         domain.CounterStore
	scores        *ScoreService
	notifications *NotificationService
	logger        *zap.Logger
}

// NewEngagementService creates a new EngagementService.
func NewEngagementService(
	store domain.CounterStore,
	scores *ScoreService,
	notifications *NotificationService,
	logger *zap.Logger,
) *EngagementService {
	return &EngagementService{
		store:         store,
		scores:        scores,
		notifications: notifications,
		logger:        logger,
	}
}

// RecordEvent processes one engagement event. The content service has
// already incremented its counters; this engine re-reads them, refreshes
// the score and ranking position, and evaluates notification triggers.
//
// An unknown content id enters tracking on its first event when the event
// carries the item's author; otherwise ErrNotTracked is returned.
func (s *EngagementService) RecordEvent(ctx context.Context, ev domain.EngagementEvent) (domain.ScoreSnapshot, error) {
	if !ev.Kind.Valid() {
		return domain.ScoreSnapshot{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	item, err := s.store.GetCounters(ctx, ev.ContentID)
	if errors.Is(err, domain.ErrNotTracked) {
		item, err = s.track(ctx, ev)
	}
	if err != nil {
		return domain.ScoreSnapshot{}, err
	}

	// Fresh counters in hand: invalidate first so any concurrent reader
	// recomputes rather than serving the pre-event snapshot.
	s.scores.Invalidate(ctx, ev.ContentID)
	snap := s.scores.RefreshItem(ctx, item)

	s.notifications.EvaluateEvent(ctx, item, ev, snap.Score)

	s.logger.Debug("event recorded",
		zap.String("content_id", ev.ContentID),
		zap.String("kind", string(ev.Kind)),
		zap.Float64("score", snap.Score),
	)

	return snap, nil
}

// track registers an item on its first event. The event must name the
// item's author; creation time falls back to the event time when the
// content service didn't supply one.
func (s *EngagementService) track(ctx context.Context, ev domain.EngagementEvent) (*domain.ContentItem, error) {
	if ev.AuthorID == "" {
		return nil, fmt.Errorf("first event for %s carries no author: %w", ev.ContentID, domain.ErrNotTracked)
	}

	createdAt := ev.ContentCreatedAt
	if createdAt.IsZero() {
		createdAt = ev.OccurredAt
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	item := domain.NewContentItem(ev.ContentID, ev.AuthorID, createdAt)
	if err := s.store.Track(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("content entered tracking",
		zap.String("content_id", ev.ContentID),
		zap.String("author_id", ev.AuthorID),
	)

	// Re-read: a racing first event may have won the insert, and the
	// counters may already be ahead of the zero-value item.
	return s.store.GetCounters(ctx, ev.ContentID)
}

// HandleContentDeleted honors the content service's deletion signal by
// removing the item from tracking, ranking, and cache. Idempotent.
func (s *EngagementService) HandleContentDeleted(ctx context.Context, contentID string) error {
	if err := s.store.Delete(ctx, contentID); err != nil {
		return err
	}

	s.scores.Forget(ctx, contentID)

	s.logger.Info("content removed from tracking",
		zap.String("content_id", contentID),
	)

	return nil
}

// RebuildIndex repopulates the ranking index from the counter store. The
// index is derived state, so a restart simply recomputes it.
func (s *EngagementService) RebuildIndex(ctx context.Context) (int, error) {
	items, err := s.store.ListTracked(ctx)
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		s.scores.RefreshItem(ctx, item)
	}

	s.logger.Info("ranking index rebuilt",
		zap.Int("items", len(items)),
	)

	return len(items), nil
}
