package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// retryInterval is how often a blocked acquirer re-attempts SET NX while
// waiting for the current owner to release or expire.
const retryInterval = 50 * time.Millisecond

// releaseTimeout bounds the detached compare-and-delete call on release.
const releaseTimeout = 3 * time.Second

// releaseScript deletes the key only if it still holds our token. A handle
// whose hold timeout already expired must not evict a later owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCoordinator implements Coordinator on a Redis lease: SET key token
// NX PX holdTimeout, released by a compare-and-delete script.
type RedisCoordinator struct {
	client redis.UniversalClient
}

// NewRedisCoordinator creates a RedisCoordinator on the given client.
func NewRedisCoordinator(client redis.UniversalClient) *RedisCoordinator {
	return &RedisCoordinator{client: client}
}

// Acquire implements Coordinator.
func (c *RedisCoordinator) Acquire(ctx context.Context, key string, waitTimeout, holdTimeout time.Duration) (Handle, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(waitTimeout)

	for {
		ok, err := c.client.SetNX(ctx, key, token, holdTimeout).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: redis setnx %q: %w", key, err)
		}
		if ok {
			return &redisHandle{client: c.client, key: key, token: token}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("lock: key %q: %w", key, ErrAcquireTimeout)
		}
		wait := retryInterval
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

type redisHandle struct {
	client   redis.UniversalClient
	key      string
	token    string
	mu       sync.Mutex
	released bool
}

func (h *redisHandle) Key() string { return h.key }

// Release implements Handle. The compare-and-delete script makes a stale
// release a no-op. A failed script run does not mark the handle released,
// so the caller may retry; only a successful run short-circuits repeats.
// The caller's context may already be cancelled when the request was
// interrupted mid-flow, and the key must still be deleted, so the script
// runs detached from that cancellation with its own deadline.
func (h *redisHandle) Release(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, h.client, []string{h.key}, h.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("lock: release %q: %w", h.key, err)
	}
	h.released = true
	return nil
}
