// Package dispatch implements the domain.Dispatcher port as an HTTP
// client for the external notification dispatch collaborator. Delivery
// channel, localization, and retries beyond the transport level belong to
// that collaborator, not this engine.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"engagement-engine/internal/domain"
)

// Endpoint is the API path for the dispatch collaborator's intent intake.
const Endpoint = "/api/v1/notifications"

// ClientConfig holds configuration for the dispatch client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig
	CB      CBConfig
}

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	WaitTime    time.Duration
	MaxWaitTime time.Duration
}

// CBConfig holds circuit breaker configuration.
type CBConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// Client implements domain.Dispatcher over HTTP.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// New creates a new dispatch client with retry and circuit-breaker
// protection. A tripped breaker sheds intents instead of piling them onto
// a struggling collaborator; lost intents are acceptable here because
// dispatch failures are non-fatal by contract.
func New(cfg ClientConfig, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retry.MaxAttempts).
		SetRetryWaitTime(cfg.Retry.WaitTime).
		SetRetryMaxWaitTime(cfg.Retry.MaxWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on network errors or 5xx status codes
			if err != nil {
				return true
			}

			return r.StatusCode() >= 500
		})

	settings := gobreaker.Settings{
		Name:        "dispatch",
		MaxRequests: cfg.CB.MaxRequests,
		Interval:    cfg.CB.Interval,
		Timeout:     cfg.CB.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.CB.FailureRatio
		},
	}

	return &Client{
		client: client,
		cb:     gobreaker.NewCircuitBreaker[*resty.Response](settings),
		logger: logger,
	}
}

// Dispatch hands one notification intent to the collaborator.
func (c *Client) Dispatch(ctx context.Context, intent domain.NotificationIntent) error {
	body := fromIntent(intent)

	_, err := c.cb.Execute(func() (*resty.Response, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetBody(body).
			Post(Endpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("dispatch returned status %d", r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		c.logger.Warn("notification dispatch failed",
			zap.String("kind", string(intent.Kind)),
			zap.String("content_id", intent.ContentID),
			zap.String("state", c.cb.State().String()),
			zap.Error(err),
		)

		return fmt.Errorf("dispatching %s intent: %w", intent.Kind, err)
	}

	c.logger.Debug("notification intent dispatched",
		zap.String("kind", string(intent.Kind)),
		zap.String("user_id", intent.UserID),
		zap.String("content_id", intent.ContentID),
	)

	return nil
}

// HealthCheck verifies the dispatch collaborator is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}
