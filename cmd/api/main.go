// Package main is the entry point for the engagement-engine API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"engagement-engine/internal/app/service"
	"engagement-engine/internal/config"
	"engagement-engine/internal/domain"
	"engagement-engine/internal/infra/dispatch"
	"engagement-engine/internal/infra/postgres"
	"engagement-engine/internal/infra/postgres/migrations"
	rediscache "engagement-engine/internal/infra/redis"
	"engagement-engine/internal/job"
	"engagement-engine/internal/logger"
	"engagement-engine/internal/ranking"
	"engagement-engine/internal/transport/httpserver"
	"engagement-engine/internal/validator"
	"engagement-engine/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting engagement-engine",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create repository (counter store + promotion log)
	repo := postgres.NewRepository(db)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Ping Redis to verify connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Score snapshot cache
	cache := rediscache.NewCache(redisClient, log.Logger, cfg.Engine.CacheKeyPrefix)

	// Distributed locker: sweep mutual exclusion plus promotion and
	// notification guards
	distLocker := locker.NewRedisLocker(redisClient, log.Logger)

	// Notification dispatch client
	dispatcher := dispatch.New(
		dispatch.ClientConfig{
			BaseURL: cfg.Dispatch.BaseURL,
			Timeout: cfg.Dispatch.Timeout,
			Retry: dispatch.RetryConfig{
				MaxAttempts: cfg.Dispatch.Retry.MaxAttempts,
				WaitTime:    cfg.Dispatch.Retry.WaitTime,
				MaxWaitTime: cfg.Dispatch.Retry.MaxWaitTime,
			},
			CB: dispatch.CBConfig{
				MaxRequests:  cfg.Dispatch.CB.MaxRequests,
				Interval:     cfg.Dispatch.CB.Interval,
				Timeout:      cfg.Dispatch.CB.Timeout,
				FailureRatio: cfg.Dispatch.CB.FailureRatio,
			},
		},
		log.Logger,
	)

	// Global ranking index, rebuilt from the store on startup
	index := ranking.New()

	// Create services
	decay := domain.DecayParams{Days: cfg.Engine.DecayDays, MinWeight: cfg.Engine.MinWeight}

	scoreSvc := service.NewScoreService(repo, cache, index, service.ScoringConfig{
		Weights: domain.ScoreWeights{
			Reply: cfg.Engine.ReplyWeight,
			Like:  cfg.Engine.LikeWeight,
			View:  cfg.Engine.ViewWeight,
		},
		Decay: decay,
		TTL:   cfg.Engine.ScoreTTL,
	}, log.Logger)

	notificationSvc := service.NewNotificationService(dispatcher, distLocker, cache, service.NotificationConfig{
		LikeMilestoneInterval: cfg.Engine.LikeMilestoneInterval,
		PopularThreshold:      cfg.Engine.PopularThreshold,
		Decay:                 decay,
		GuardTTL:              cfg.Engine.GuardTTL,
	}, log.Logger)

	engagementSvc := service.NewEngagementService(repo, scoreSvc, notificationSvc, log.Logger)

	promotionSvc := service.NewPromotionService(
		repo, repo, scoreSvc, notificationSvc, distLocker,
		service.PromotionConfig{
			PostToSpotThreshold:   cfg.Engine.PostToSpotThreshold,
			SpotToChallengeTopPct: cfg.Engine.SpotToChallengePct,
			GuardTTL:              cfg.Engine.GuardTTL,
		},
		log.Logger,
	)

	rankSvc := service.NewRankService(repo, repo, scoreSvc, index, log.Logger)

	// Rebuild the ranking index before serving reads
	if n, err := engagementSvc.RebuildIndex(ctx); err != nil {
		log.Fatal("failed to rebuild ranking index", zap.Error(err))
	} else {
		log.Info("ranking index ready", zap.Int("items", n))
	}

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:        cfg.App.Port,
			BodyLimit:   1024 * 1024, // 1MB
			Debug:       cfg.App.Debug,
			SweepBudget: cfg.Sweep.Budget,
		},
		engagementSvc,
		rankSvc,
		promotionSvc,
		db,
		v,
		log.Logger,
	)

	// Start sweep scheduler with distributed locking
	scheduler := job.NewSweepScheduler(
		promotionSvc,
		job.SweepConfig{
			Interval:  cfg.Sweep.Interval,
			Budget:    cfg.Sweep.Budget,
			OnStartup: cfg.Sweep.OnStartup,
		},
		log.Logger,
		distLocker,
	)
	scheduler.Start(cfg.Sweep.OnStartup)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop scheduler
		scheduler.Stop()

		// Shutdown server with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
