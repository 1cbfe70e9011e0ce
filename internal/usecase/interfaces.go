package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	CountByOwnerAndType(ctx context.Context, ownerID string, accountType domain.AccountType) (int64, error)
	UpdateBalances(ctx context.Context, tx Transaction, id string, balance, available, blocked decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for the transaction log.
type TransactionRepository interface {
	Append(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetCompletedByIdempotencyKey returns the completed transaction bound
	// to key, or domain.ErrTransactionNotFound.
	GetCompletedByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListByReference(ctx context.Context, referenceID string) ([]*domain.Transaction, error)
	UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, processedAt time.Time) error
	// CountByAccountSince counts transaction attempts in (since, now] for
	// velocity scoring.
	CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int64, error)
	// SumCompletedDebits sums completed debit-type amounts in (since, now].
	// Reads the durable log, never a cache.
	SumCompletedDebits(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error)
	// AverageCompletedAmount returns the historical mean transaction amount,
	// zero when the account has no completed transactions.
	AverageCompletedAmount(ctx context.Context, accountID string) (decimal.Decimal, error)
	// SumCompletedSigned sums all completed transactions credit-minus-debit,
	// producing the canonical balance.
	SumCompletedSigned(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles database transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// LockHandle is a held set of account leases. Release is idempotent.
type LockHandle interface {
	Release(ctx context.Context) error
}

// LockCoordinator grants mutual-exclusion leases on account IDs.
// Implementations must sort keys into canonical order before acquiring and
// must release partial acquisitions before returning domain.ErrLockTimeout.
type LockCoordinator interface {
	Acquire(ctx context.Context, keys []string, leaseTTL time.Duration) (LockHandle, error)
}

// RateProvider resolves exchange rates between currency pairs.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// BalanceCache holds short-TTL read-optimized balance snapshots.
type BalanceCache interface {
	Get(ctx context.Context, accountID string) (*BalanceSnapshot, error)
	Set(ctx context.Context, snapshot *BalanceSnapshot) error
	Invalidate(ctx context.Context, accountID string) error
}

// BalanceSnapshot is a cached view of an account balance with freshness.
type BalanceSnapshot struct {
	AccountID        string          `json:"account_id"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	BlockedBalance   decimal.Decimal `json:"blocked_balance"`
	Currency         string          `json:"currency"`
	CachedAt         time.Time       `json:"cached_at"`
}

// Stale reports whether the snapshot is older than maxAge.
func (s *BalanceSnapshot) Stale(maxAge time.Duration, now time.Time) bool {
	return now.Sub(s.CachedAt) > maxAge
}

// Notifier delivers completion events. Best effort: implementations must
// never block the caller and failures never affect transaction outcome.
type Notifier interface {
	Notify(eventType string, payload map[string]any)
}

// IdempotencyStore is the fast-path cache for idempotency lookups. The
// durable transaction log remains authoritative.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Retrier retries infrastructure operations with backoff.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
