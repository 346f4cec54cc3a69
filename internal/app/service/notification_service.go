package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"engagement-engine/internal/domain"
	"engagement-engine/pkg/locker"
)

// NotificationConfig holds the notification trigger tunables.
type NotificationConfig struct {
	// LikeMilestoneInterval fires a milestone every N likes; 0 disables.
	LikeMilestoneInterval int64
	// PopularThreshold is the score at which a recent item "enters popular".
	PopularThreshold float64
	// Decay bounds the popularity-entry window: the condition only fires
	// while the item is younger than the decay window.
	Decay domain.DecayParams
	// GuardTTL is the dedup window for concurrently delivered duplicates.
	GuardTTL time.Duration
}

// NotificationService evaluates milestone and popularity conditions after
// each recorded event and hands the resulting intents to the dispatch
// collaborator. It decides that and what to send, never how.
type NotificationService struct {
	dispatcher domain.Dispatcher
	guard      locker.DistributedLocker
	marks      domain.Cache // like-count watermarks; nil degrades, see lastSeenLikes
	cfg        NotificationConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	dispatcher domain.Dispatcher,
	guard locker.DistributedLocker,
	marks domain.Cache,
	cfg NotificationConfig,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		guard:      guard,
		marks:      marks,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// EvaluateEvent runs all trigger rules for one recorded event. item
// carries counters that already include the event; score is the freshly
// computed snapshot value.
func (s *NotificationService) EvaluateEvent(ctx context.Context, item *domain.ContentItem, ev domain.EngagementEvent, score float64) {
	switch ev.Kind {
	case domain.EventLike:
		s.evaluateLikeMilestone(ctx, item)
	case domain.EventReply:
		if ev.ReplyID != "" {
			s.Announce(ctx, domain.NewCommentReplyIntent(item, ev.ReplyID, ev.ActorID))
		}
	}

	s.evaluatePopularityEntry(ctx, item, score)
}

// evaluateLikeMilestone fires one intent per interval multiple crossed
// between the last like count this engine saw and the current one. The
// counters are externally owned and re-read at processing time, so the
// counter can race past a multiple before the event is processed; the
// watermark catches every crossed multiple regardless. The guard absorbs
// concurrent duplicate announcements of the same multiple.
func (s *NotificationService) evaluateLikeMilestone(ctx context.Context, item *domain.ContentItem) {
	interval := s.cfg.LikeMilestoneInterval
	likes := item.Counters.Likes
	if interval <= 0 || likes <= 0 {
		return
	}

	seen := s.lastSeenLikes(ctx, item.ID, likes)
	if seen > likes {
		// Counter regression upstream; don't re-announce old milestones.
		seen = likes
	}

	for m := seen/interval + 1; m <= likes/interval; m++ {
		key := fmt.Sprintf("notify:milestone:%s:%d", item.ID, m)

		acquired, err := s.guard.Acquire(ctx, key, s.cfg.GuardTTL)
		if err != nil {
			s.logger.Warn("milestone guard unavailable",
				zap.String("content_id", item.ID),
				zap.Error(err),
			)
			return
		}
		if !acquired {
			s.logger.Debug("milestone already announced",
				zap.String("content_id", item.ID),
				zap.Int64("milestone", m),
			)
			continue
		}

		s.Announce(ctx, domain.NewLikeMilestoneIntent(item, m, interval))
	}

	// Advance the watermark only after announcing, so a crash mid-loop
	// retries the crossed multiples (the guard dedups the retries).
	s.storeSeenLikes(ctx, item.ID, likes)
}

func milestoneMarkKey(contentID string) string {
	return "notify:milestone:last:" + contentID
}

// lastSeenLikes reads the like-count watermark. A genuine miss means the
// item was never evaluated, so every multiple up to the current count is
// outstanding. When the watermark is unreadable (nil marks store or a
// redis failure) it degrades to likes-1: each event then only announces a
// multiple it lands on exactly, never re-announcing history.
func (s *NotificationService) lastSeenLikes(ctx context.Context, contentID string, likes int64) int64 {
	if s.marks == nil {
		return likes - 1
	}

	data, err := s.marks.Get(ctx, milestoneMarkKey(contentID))
	if err != nil {
		s.logger.Warn("milestone watermark unavailable",
			zap.String("content_id", contentID),
			zap.Error(err),
		)
		return likes - 1
	}
	if data == nil {
		return 0
	}

	seen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		s.logger.Warn("corrupt milestone watermark",
			zap.String("content_id", contentID),
			zap.Error(err),
		)
		return likes - 1
	}

	return seen
}

// storeSeenLikes advances the watermark. Watermarks never expire; losing
// one only re-opens multiples the guard already absorbed.
func (s *NotificationService) storeSeenLikes(ctx context.Context, contentID string, likes int64) {
	if s.marks == nil {
		return
	}

	key := milestoneMarkKey(contentID)
	if err := s.marks.Set(ctx, key, []byte(strconv.FormatInt(likes, 10)), 0); err != nil {
		s.logger.Warn("milestone watermark store failed",
			zap.String("content_id", contentID),
			zap.Error(err),
		)
	}
}

// evaluatePopularityEntry fires once per content lifetime, the first time
// the score exceeds the popular threshold while the item is still inside
// the decay window. The guard TTL spans the whole window, which is the
// only period in which the condition can hold, so "once per lifetime"
// reduces to one acquisition.
func (s *NotificationService) evaluatePopularityEntry(ctx context.Context, item *domain.ContentItem, score float64) {
	if score < s.cfg.PopularThreshold {
		return
	}
	if item.AgeDays(s.now()) >= s.cfg.Decay.Days {
		return
	}

	window := time.Duration(s.cfg.Decay.Days * 24 * float64(time.Hour))
	key := "notify:popular:" + item.ID

	acquired, err := s.guard.Acquire(ctx, key, window)
	if err != nil {
		s.logger.Warn("popularity guard unavailable",
			zap.String("content_id", item.ID),
			zap.Error(err),
		)
		return
	}
	if !acquired {
		return
	}

	s.logger.Info("content entered popular",
		zap.String("content_id", item.ID),
		zap.Float64("score", score),
	)
	s.Announce(ctx, domain.NewPopularityEntryIntent(item, score))
}

// Announce hands one intent to the dispatch collaborator. Failures are
// logged and dropped: retry policy, if any, belongs to the collaborator.
func (s *NotificationService) Announce(ctx context.Context, intent domain.NotificationIntent) {
	if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
		s.logger.Warn("notification intent dropped",
			zap.String("kind", string(intent.Kind)),
			zap.String("content_id", intent.ContentID),
			zap.Error(err),
		)
	}
}
