package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"engagement-engine/internal/domain"
	"engagement-engine/internal/ranking"
	"engagement-engine/pkg/locker"
)

// PromotionConfig holds the promotion sweep tunables.
type PromotionConfig struct {
	// PostToSpotThreshold is the score a post must reach to become a spot.
	PostToSpotThreshold float64
	// SpotToChallengeTopPct is the fraction of top-ranked spots promoted
	// to challenge, e.g. 0.30 for the top 30%.
	SpotToChallengeTopPct float64
	// GuardTTL is the execution-guard window for a single transition.
	GuardTTL time.Duration
}

// SweepResult summarizes one sweep cycle for logging and the admin API.
type SweepResult struct {
	Scanned             int           `json:"scanned"`
	PromotedToSpot      int           `json:"promoted_to_spot"`
	PromotedToChallenge int           `json:"promoted_to_challenge"`
	Skipped             int           `json:"skipped"`
	Elapsed             time.Duration `json:"elapsed"`
}

// PromotionService runs the periodic promotion sweep: refresh every
// tracked item's score, raise posts that cleared the spot threshold, then
// raise the top slice of spots to challenge. Promotions happen only here;
// the event path never changes tiers.
type PromotionService struct {
	store         domain.CounterStore
	promos        domain.PromotionLog
	scores        *ScoreService
	notifications *NotificationService
	guard         locker.DistributedLocker
	cfg           PromotionConfig
	logger        *zap.Logger
	now           func() time.Time
}

// NewPromotionService creates a new PromotionService.
func NewPromotionService(
	store domain.CounterStore,
	promos domain.PromotionLog,
	scores *ScoreService,
	notifications *NotificationService,
	guard locker.DistributedLocker,
	cfg PromotionConfig,
	logger *zap.Logger,
) *PromotionService {
	return &PromotionService{
		store:         store,
		promos:        promos,
		scores:        scores,
		notifications: notifications,
		guard:         guard,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Sweep runs one promotion cycle over every tracked item. The caller
// bounds the cycle with a context deadline; the sweep checks it between
// items and stops cleanly, counting the remainder as skipped. A partial
// sweep is harmless: the next cycle re-evaluates everything.
//
// The spot population for the percentile pass is captured at sweep start,
// so a post promoted in this cycle competes for challenge no earlier than
// the next one.
func (s *PromotionService) Sweep(ctx context.Context) (SweepResult, error) {
	started := s.now()

	items, err := s.store.ListTracked(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	res := SweepResult{Scanned: len(items)}

	// Phase 1: refresh every score so both passes rank on the same
	// moment-in-time snapshots.
	snaps := make(map[string]domain.ScoreSnapshot, len(items))
	var posts, spots []*domain.ContentItem
	for i, item := range items {
		if ctx.Err() != nil {
			res.Skipped = len(items) - i
			res.Elapsed = s.now().Sub(started)
			s.logger.Warn("sweep budget exhausted during refresh",
				zap.Int("skipped", res.Skipped),
			)
			return res, ctx.Err()
		}

		snaps[item.ID] = s.scores.RefreshItem(ctx, item)
		switch item.Tier {
		case domain.TierPost:
			posts = append(posts, item)
		case domain.TierSpot:
			spots = append(spots, item)
		}
	}

	// Phase 2: posts that cleared the threshold become spots.
	for _, item := range posts {
		if ctx.Err() != nil {
			res.Skipped++
			continue
		}
		snap := snaps[item.ID]
		if snap.Score < s.cfg.PostToSpotThreshold {
			continue
		}
		if s.promote(ctx, item, domain.TierSpot, snap.Score) {
			res.PromotedToSpot++
		}
	}

	// Phase 3: the top slice of the sweep-start spot population becomes
	// challenges. Ranking is percentile within that population only.
	spotEntries := make([]ranking.Entry, 0, len(spots))
	for _, item := range spots {
		snap := snaps[item.ID]
		spotEntries = append(spotEntries, ranking.Entry{
			ContentID: item.ID,
			Score:     snap.Score,
			CreatedAt: item.CreatedAt,
		})
	}
	cutoff := 1.0 - s.cfg.SpotToChallengeTopPct
	for i, item := range spots {
		if ctx.Err() != nil {
			res.Skipped++
			continue
		}
		if ranking.Percentile(spotEntries, spotEntries[i]) < cutoff {
			continue
		}
		if s.promote(ctx, item, domain.TierChallenge, snaps[item.ID].Score) {
			res.PromotedToChallenge++
		}
	}

	res.Elapsed = s.now().Sub(started)
	s.logger.Info("promotion sweep finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("promoted_to_spot", res.PromotedToSpot),
		zap.Int("promoted_to_challenge", res.PromotedToChallenge),
		zap.Int("skipped", res.Skipped),
		zap.Duration("elapsed", res.Elapsed),
	)

	return res, nil
}

// promote executes one tier transition: acquire the execution guard,
// append the audit record, then raise the tier. Reports whether this call
// performed the transition.
//
// Once the guard is held the remaining steps run detached from the sweep
// deadline: a transition is either fully applied or not started, never
// half-done because the budget lapsed mid-flight.
func (s *PromotionService) promote(ctx context.Context, item *domain.ContentItem, to domain.Tier, score float64) bool {
	rec, err := domain.NewPromotionRecord(item.ID, item.Tier, to, s.now())
	if err != nil {
		s.logger.Error("refusing promotion",
			zap.String("content_id", item.ID),
			zap.Error(err),
		)
		return false
	}

	acquired, err := s.guard.Acquire(ctx, rec.GuardKey(), s.cfg.GuardTTL)
	if err != nil {
		s.logger.Warn("promotion guard unavailable",
			zap.String("content_id", item.ID),
			zap.Error(err),
		)
		return false
	}
	if !acquired {
		s.logger.Debug("promotion already in flight",
			zap.String("content_id", item.ID),
			zap.String("to_tier", string(to)),
		)
		return false
	}

	tctx := context.WithoutCancel(ctx)

	appended, err := s.promos.Append(tctx, rec)
	if err != nil {
		// Free the guard so the next sweep can retry without waiting out
		// the TTL.
		_ = s.guard.Release(tctx, rec.GuardKey())
		s.logger.Error("promotion record write failed",
			zap.String("content_id", item.ID),
			zap.Error(err),
		)
		return false
	}

	// Raise the tier even when the record already existed: a previous
	// attempt may have died between the record write and the tier update,
	// and the pinned-tier UPDATE is a no-op when the tier was already
	// raised. Either way the record-without-tier state converges here.
	if err := s.store.UpdateTier(tctx, item.ID, to); err != nil {
		_ = s.guard.Release(tctx, rec.GuardKey())
		s.logger.Error("tier update failed",
			zap.String("content_id", item.ID),
			zap.String("to_tier", string(to)),
			zap.Error(err),
		)
		return false
	}
	item.Tier = to

	if !appended {
		// Another run owns this transition; this call at most repaired
		// its tier update.
		return false
	}

	s.logger.Info("content promoted",
		zap.String("content_id", item.ID),
		zap.String("from_tier", string(rec.FromTier)),
		zap.String("to_tier", string(to)),
		zap.Float64("score", score),
	)

	if to == domain.TierChallenge {
		s.notifications.Announce(tctx, domain.NewChallengeReachedIntent(item))
	}

	return true
}
