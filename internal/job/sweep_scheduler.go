// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"engagement-engine/internal/app/service"
	"engagement-engine/pkg/locker"
)

// SweepScheduler runs the periodic promotion sweep with distributed
// locking so only one instance evaluates promotions at a time.
type SweepScheduler struct {
	promotions *service.PromotionService
	interval   time.Duration
	budget     time.Duration
	logger     *zap.Logger
	locker     locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SweepConfig holds sweep scheduler configuration.
type SweepConfig struct {
	Interval  time.Duration
	Budget    time.Duration
	OnStartup bool
}

// NewSweepScheduler creates a new SweepScheduler with distributed locking
// support.
//
// Parameters:
//   - promotions: Service running the actual sweep cycles
//   - cfg: Sweep configuration including interval and time budget
//   - logger: Structured logger for operational visibility
//   - locker: Distributed locker for cross-instance coordination
func NewSweepScheduler(
	promotions *service.PromotionService,
	cfg SweepConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *SweepScheduler {
	return &SweepScheduler{
		promotions: promotions,
		interval:   cfg.Interval,
		budget:     cfg.Budget,
		logger:     logger,
		locker:     locker,
	}
}

// Start begins the background sweep job.
func (s *SweepScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting sweep scheduler",
		zap.Duration("interval", s.interval),
		zap.Duration("budget", s.budget),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler.
func (s *SweepScheduler) Stop() {
	s.logger.Info("stopping sweep scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("sweep scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *SweepScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	// Run immediately if configured
	if runOnStartup {
		s.executeSweep()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeSweep()
		}
	}
}

// executeSweep performs one sweep cycle with distributed locking and a
// time budget.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: Lock held for full interval to prevent duplicate sweeps
//   - Failure: Lock released immediately to allow retry by another instance
func (s *SweepScheduler) executeSweep() {
	const lockKey = "sweep:scheduler:lock"

	// Try to acquire lock with interval-based TTL (cooldown model)
	acquired, err := s.locker.Acquire(s.ctx, lockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		s.logger.Debug("another instance is running the sweep, skipping execution")

		return
	}

	// Lock acquired - run the sweep within its time budget
	ctx, cancel := context.WithTimeout(s.ctx, s.budget)
	defer cancel()

	res, err := s.promotions.Sweep(ctx)
	if err != nil {
		// Release lock immediately on error (allow immediate retry)
		if rerr := s.locker.Release(s.ctx, lockKey); rerr != nil {
			s.logger.Error("failed to release lock after sweep error", zap.Error(rerr))
		}
		s.logger.Warn("sweep ended early, lock released for retry",
			zap.Int("scanned", res.Scanned),
			zap.Int("skipped", res.Skipped),
			zap.Error(err),
		)

		return
	}

	// Lock will expire naturally after interval (cooldown period)
	s.logger.Info("sweep completed successfully, lock held for cooldown",
		zap.Int("scanned", res.Scanned),
		zap.Int("promoted_to_spot", res.PromotedToSpot),
		zap.Int("promoted_to_challenge", res.PromotedToChallenge),
		zap.Duration("cooldown", s.interval),
	)
}
