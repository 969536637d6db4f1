package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRetryInterval is the poll interval for blocked in-process acquirers.
const memoryRetryInterval = 5 * time.Millisecond

type lease struct {
	token     string
	expiresAt time.Time
}

// MemoryCoordinator implements Coordinator with an in-process keyed lease
// table. It provides the same contract as the Redis backend (bounded wait,
// bounded hold, owner-checked release) for single-node deployments and
// tests; it obviously cannot coordinate across processes.
type MemoryCoordinator struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

// NewMemoryCoordinator creates an empty MemoryCoordinator.
func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

// Acquire implements Coordinator.
func (c *MemoryCoordinator) Acquire(ctx context.Context, key string, waitTimeout, holdTimeout time.Duration) (Handle, error) {
	token := uuid.NewString()
	deadline := c.now().Add(waitTimeout)

	for {
		if c.tryAcquire(key, token, holdTimeout) {
			return &memoryHandle{coord: c, key: key, token: token}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("lock: key %q: %w", key, ErrAcquireTimeout)
		}
		wait := memoryRetryInterval
		if wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("lock: waiting for key %q: %w", key, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *MemoryCoordinator) tryAcquire(key, token string, holdTimeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if current, held := c.leases[key]; held && current.expiresAt.After(now) {
		return false
	}
	// Expired leases count as auto-released.
	c.leases[key] = lease{token: token, expiresAt: now.Add(holdTimeout)}
	return true
}

func (c *MemoryCoordinator) release(key, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, held := c.leases[key]; held && current.token == token {
		delete(c.leases, key)
	}
}

type memoryHandle struct {
	coord *MemoryCoordinator
	key   string
	token string
}

func (h *memoryHandle) Key() string { return h.key }

// Release implements Handle. Owner-checked, so stale or repeated releases
// are no-ops.
func (h *memoryHandle) Release(ctx context.Context) error {
	h.coord.release(h.key, h.token)
	return nil
}
