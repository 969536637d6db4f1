// Package lock provides the distributed mutual-exclusion primitive that
// serializes booking attempts per listing.
//
// One coarse-grained key per listing ("booking:lock:listing:<id>") totally
// orders all concurrent creation attempts for that listing: one key, one
// acquire call, no lock-ordering problem and no partial-acquisition failure
// mode. A finer per-day key set would allow concurrent non-overlapping
// stays on the same listing at the cost of atomic multi-key release on
// every failure path; it is deliberately not implemented here and should
// only be revisited with real contention data.
//
// The lock alone does not inspect booking state. Callers must re-validate
// against the booking store while holding the lock; that re-check is what
// turns the lease into a serializability guarantee.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAcquireTimeout is returned when a lock cannot be acquired within the
// caller's wait timeout. It is retryable by the caller.
var ErrAcquireTimeout = errors.New("lock: acquire timed out")

// Handle is proof of exclusive, time-bounded ownership of a key.
// It lives only for the duration of one booking attempt and is never
// persisted.
type Handle interface {
	// Key returns the coordination key this handle owns.
	Key() string

	// Release gives up ownership. It is idempotent and owner-checked:
	// calling it twice, or after the hold timeout already auto-released
	// the key, is safe and never evicts a later owner.
	Release(ctx context.Context) error
}

// Coordinator is the distributed mutual-exclusion contract. Any backend
// with lease semantics satisfies it: a TTL key store, a consensus-backed
// lock service, or an in-process keyed mutex for single-node deployments.
type Coordinator interface {
	// Acquire blocks up to waitTimeout attempting to obtain exclusive
	// ownership of key. On success the returned handle is valid for at
	// most holdTimeout, after which the backend auto-releases it (safety
	// net against a crash while holding the lock). On timeout it returns
	// an error wrapping ErrAcquireTimeout; it never blocks indefinitely.
	// Context cancellation aborts the wait without leaking ownership.
	Acquire(ctx context.Context, key string, waitTimeout, holdTimeout time.Duration) (Handle, error)
}

// ListingKey builds the coordination key for a listing identity.
func ListingKey(listingID string) string {
	return fmt.Sprintf("booking:lock:listing:%s", listingID)
}
