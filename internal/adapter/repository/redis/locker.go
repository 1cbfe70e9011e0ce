package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
)

const lockRetryInterval = 25 * time.Millisecond

// releaseScript deletes a lock key only when it still holds our token, so
// a lease that expired and was re-acquired by another holder is never
// released by the original owner.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// LockCoordinator implements usecase.LockCoordinator with Redis lease
// locks. Keys are acquired in sorted order, all or nothing; a partial
// acquisition is rolled back before the next attempt.
type LockCoordinator struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewLockCoordinator creates a new LockCoordinator.
func NewLockCoordinator(client *redis.Client, logger zerolog.Logger) *LockCoordinator {
	return &LockCoordinator{
		client: client,
		prefix: "lock:",
		logger: logger,
	}
}

// Acquire obtains leases on all keys, retrying until the context deadline.
// Returns domain.ErrLockTimeout when the full set cannot be acquired in
// time, with no leases left behind.
func (c *LockCoordinator) Acquire(ctx context.Context, keys []string, leaseTTL time.Duration) (usecase.LockHandle, error) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	token := ulid.Make().String()

	for {
		acquired, err := c.tryAcquire(ctx, sorted, token, leaseTTL)
		if err != nil {
			return nil, err
		}
		if acquired {
			return &lockHandle{
				coordinator: c,
				keys:        sorted,
				token:       token,
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, domain.ErrLockTimeout
		case <-time.After(lockRetryInterval):
		}
	}
}

// tryAcquire attempts one all-or-nothing pass over the sorted keys.
func (c *LockCoordinator) tryAcquire(ctx context.Context, keys []string, token string, leaseTTL time.Duration) (bool, error) {
	for i, key := range keys {
		ok, err := c.client.SetNX(ctx, c.prefix+key, token, leaseTTL).Result()
		if err != nil {
			c.release(ctx, keys[:i], token)
			return false, err
		}
		if !ok {
			c.release(ctx, keys[:i], token)
			return false, nil
		}
	}

	return true, nil
}

func (c *LockCoordinator) release(ctx context.Context, keys []string, token string) {
	for _, key := range keys {
		if err := releaseScript.Run(ctx, c.client, []string{c.prefix + key}, token).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("lock release failed, lease will expire")
		}
	}
}

// lockHandle is a held lease set. Release is idempotent.
type lockHandle struct {
	coordinator *LockCoordinator
	keys        []string
	token       string
	once        sync.Once
}

// Release drops all leases held by this handle.
func (h *lockHandle) Release(ctx context.Context) error {
	h.once.Do(func() {
		h.coordinator.release(ctx, h.keys, h.token)
	})

	return nil
}
