package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotTracked is returned when a content id is unknown to the engine.
var ErrNotTracked = errors.New("content not tracked")

// ErrUpstreamUnavailable wraps counter-store failures. Callers skip the
// affected item for the current cycle and retry on the next one; nothing
// in this engine treats it as fatal.
var ErrUpstreamUnavailable = errors.New("counter store unavailable")

// CounterStore is the boundary to the external content/counter service.
// Counters are read-only from the engine's perspective; the tier column is
// the one piece of engine-owned state living alongside them.
// Implementations: internal/infra/postgres/repository.go
type CounterStore interface {
	// GetCounters retrieves a single item's counters, creation time, and
	// current tier. Returns ErrNotTracked for unknown ids.
	GetCounters(ctx context.Context, contentID string) (*ContentItem, error)

	// ListTracked returns every item currently under tracking. Used by the
	// promotion sweep and the startup index rebuild.
	ListTracked(ctx context.Context) ([]*ContentItem, error)

	// ListByTier returns tracked items in the given tier.
	ListByTier(ctx context.Context, tier Tier) ([]*ContentItem, error)

	// UpdateTier advances an item's tier. Implementations must refuse
	// regressions (tier is only ever raised).
	UpdateTier(ctx context.Context, contentID string, tier Tier) error

	// Track registers an item the first time it receives an event.
	Track(ctx context.Context, item *ContentItem) error

	// Delete removes an item after the content service signals deletion
	// or archival. Idempotent.
	Delete(ctx context.Context, contentID string) error
}

// PromotionLog is the append-only audit of tier transitions.
// Implementations: internal/infra/postgres/repository.go
type PromotionLog interface {
	// Append writes a promotion record. Returns false when a record for
	// the same (content, from, to) pair already exists.
	Append(ctx context.Context, rec PromotionRecord) (bool, error)

	// ListByContent returns all recorded transitions for one item,
	// oldest first.
	ListByContent(ctx context.Context, contentID string) ([]PromotionRecord, error)
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}

// Dispatcher hands notification intents to the external dispatch
// collaborator. Dispatch failures are non-fatal to the engine: logged,
// never retried here.
// Implementations: internal/infra/dispatch/client.go
type Dispatcher interface {
	Dispatch(ctx context.Context, intent NotificationIntent) error
}
