package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/infrastructure/metrics"
)

// driftEpsilon is the largest balance discrepancy treated as noise.
// Smaller than any supported minor unit, so real drift is always corrected.
var driftEpsilon = decimal.RequireFromString("0.0001")

// Reconciler serves cached balance reads and periodically recomputes each
// account's balance from the transaction log, correcting drift. The log is
// the source of truth, not the balance column.
type Reconciler struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	cache       BalanceCache
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	snapshotMaxAge time.Duration
	sweepInterval  time.Duration
}

// ReconcilerConfig wires a Reconciler.
type ReconcilerConfig struct {
	TxManager       TransactionManager
	AccountRepo     AccountRepository
	TransactionRepo TransactionRepository
	Cache           BalanceCache
	Notifier        Notifier
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
	SnapshotMaxAge  time.Duration
	SweepInterval   time.Duration
}

// NewReconciler creates a new Reconciler.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.SnapshotMaxAge == 0 {
		cfg.SnapshotMaxAge = DefaultSnapshotMaxAge
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	return &Reconciler{
		txManager:      cfg.TxManager,
		accountRepo:    cfg.AccountRepo,
		txRepo:         cfg.TransactionRepo,
		cache:          cfg.Cache,
		notifier:       cfg.Notifier,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		snapshotMaxAge: cfg.SnapshotMaxAge,
		sweepInterval:  cfg.SweepInterval,
	}
}

// GetBalance returns a balance snapshot, serving from cache when fresh and
// lazily refreshing from the durable store when stale or missing. The
// cache is advisory: mutation decisions never read it.
func (r *Reconciler) GetBalance(ctx context.Context, accountID string) (*BalanceSnapshot, error) {
	now := time.Now().UTC()

	snapshot, err := r.cache.Get(ctx, accountID)
	if err == nil && snapshot != nil && !snapshot.Stale(r.snapshotMaxAge, now) {
		if r.metrics != nil {
			r.metrics.CacheHits.Inc()
		}
		return snapshot, nil
	}

	if r.metrics != nil {
		r.metrics.CacheMisses.Inc()
	}

	account, err := r.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	snapshot = &BalanceSnapshot{
		AccountID:        account.ID,
		Balance:          account.Balance,
		AvailableBalance: account.AvailableBalance,
		BlockedBalance:   account.BlockedBalance,
		Currency:         account.Currency,
		CachedAt:         now,
	}

	if err := r.cache.Set(ctx, snapshot); err != nil {
		r.logger.Warn().Err(err).Str("account_id", accountID).Msg("balance cache refresh failed")
	}

	return snapshot, nil
}

// Recompute derives the canonical balance from completed transactions and
// corrects the stored balance when it has drifted beyond the epsilon. The
// discrepancy is logged for audit.
func (r *Reconciler) Recompute(ctx context.Context, accountID string) (decimal.Decimal, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := r.txManager.Begin(txCtx)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := r.accountRepo.GetByIDForUpdate(txCtx, tx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	canonical, err := r.txRepo.SumCompletedSigned(txCtx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	drift := account.Balance.Sub(canonical)
	if drift.Abs().LessThanOrEqual(driftEpsilon) {
		return canonical, tx.Commit(txCtx)
	}

	r.logger.Warn().
		Str("account_id", accountID).
		Str("stored_balance", account.Balance.String()).
		Str("recomputed_balance", canonical.String()).
		Str("drift", drift.String()).
		Msg("balance drift detected, correcting")

	now := time.Now().UTC()
	available := canonical.Sub(account.BlockedBalance)

	if err := r.accountRepo.UpdateBalances(txCtx, tx, accountID, canonical, available, account.BlockedBalance, now); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return decimal.Zero, err
	}

	if err := r.cache.Invalidate(ctx, accountID); err != nil {
		r.logger.Warn().Err(err).Str("account_id", accountID).Msg("cache invalidation failed after correction")
	}

	if r.metrics != nil {
		r.metrics.DriftCorrections.Inc()
	}

	r.notifier.Notify(domain.EventTypeBalanceReconciled, map[string]any{
		"account_id":         accountID,
		"stored_balance":     account.Balance.String(),
		"recomputed_balance": canonical.String(),
		"drift":              drift.String(),
	})

	return canonical, nil
}

// Run sweeps all accounts through Recompute on a fixed interval until the
// context is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.sweepInterval).Msg("reconciler started")

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Error().Err(err).Msg("reconciliation sweep failed")
			}
		}
	}
}

// Sweep recomputes every account once, paging through the registry.
func (r *Reconciler) Sweep(ctx context.Context) error {
	const pageSize = 500

	for offset := 0; ; offset += pageSize {
		accounts, err := r.accountRepo.List(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			return nil
		}

		for _, account := range accounts {
			if _, err := r.Recompute(ctx, account.ID); err != nil {
				r.logger.Error().Err(err).Str("account_id", account.ID).Msg("recompute failed")
			}
		}

		if len(accounts) < pageSize {
			return nil
		}
	}
}
