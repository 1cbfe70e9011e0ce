package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finbase/paycore/internal/usecase"
)

// BalanceCache implements usecase.BalanceCache using Redis. Snapshots are
// advisory; a miss or a decode failure is reported as no snapshot, never as
// a hard error the caller must handle.
type BalanceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewBalanceCache creates a new BalanceCache. Entries expire after ttl so
// a crashed invalidation cannot leave a snapshot behind forever.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "balance:",
		ttl:    ttl,
	}
}

// Get retrieves a balance snapshot, nil on miss.
func (c *BalanceCache) Get(ctx context.Context, accountID string) (*usecase.BalanceSnapshot, error) {
	raw, err := c.client.Get(ctx, c.prefix+accountID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot usecase.BalanceSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, nil
	}

	return &snapshot, nil
}

// Set stores a balance snapshot with TTL.
func (c *BalanceCache) Set(ctx context.Context, snapshot *usecase.BalanceSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+snapshot.AccountID, raw, c.ttl).Err()
}

// Invalidate removes a cached snapshot.
func (c *BalanceCache) Invalidate(ctx context.Context, accountID string) error {
	return c.client.Del(ctx, c.prefix+accountID).Err()
}
