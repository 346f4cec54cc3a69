// Package locker provides distributed locking for coordinating one-time
// actions across service instances: the promotion sweep's mutual
// exclusion, and short-TTL idempotency guards for promotions and
// notification dedup.
package locker

import (
	"context"
	"time"
)

// DistributedLocker provides distributed lock capabilities across multiple
// instances. Implementations must be safe for concurrent use.
//
// Typical usage:
//
//	acquired, err := locker.Acquire(ctx, "my-lock", 5*time.Minute)
//	if err != nil {
//	    return err
//	}
//	if !acquired {
//	    // Another instance holds the lock (or the action already ran)
//	    return nil
//	}
//	defer locker.Release(ctx, "my-lock")
type DistributedLocker interface {
	// Acquire attempts to acquire a distributed lock with the given key.
	// Returns true if the lock was acquired, false if another instance
	// holds it. The lock expires after ttl if not released.
	//
	// The ttl depends on the lock's purpose:
	// - Mutual exclusion: the operation's timeout
	// - Idempotency guard: the dedup window (the lock is deliberately
	//   never released; it lapses on its own)
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases the lock identified by key. Safe to call even if
	// this instance doesn't own the lock (no-op).
	Release(ctx context.Context, key string) error
}
