package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a database transaction so a stuck
	// request cannot hold row locks indefinitely.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultLockLeaseTTL is how long an account lease lives before
	// auto-expiry tolerates a crashed holder.
	DefaultLockLeaseTTL = 15 * time.Second

	// DefaultLockAcquireTimeout bounds waiting for contended leases.
	DefaultLockAcquireTimeout = 5 * time.Second

	// DefaultSnapshotMaxAge is the freshness window for cached balances.
	DefaultSnapshotMaxAge = 30 * time.Second

	// DefaultIdempotencyTTL is how long idempotency fast-path entries are
	// kept.
	DefaultIdempotencyTTL = 24 * time.Hour
)
