package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
)

// LimitEnforcer tracks rolling daily and monthly spend per account and
// rejects debits exceeding the account's configured limits.
type LimitEnforcer struct {
	txRepo TransactionRepository
}

// NewLimitEnforcer creates a new LimitEnforcer.
func NewLimitEnforcer(txRepo TransactionRepository) *LimitEnforcer {
	return &LimitEnforcer{txRepo: txRepo}
}

// CheckLimits rejects the prospective debit if it would push the rolling
// daily or monthly completed-debit sum over the account's limits. Sums are
// computed from the durable transaction log so a stale cache can never be
// used to bypass a limit. Credit types are never limit-checked.
func (e *LimitEnforcer) CheckLimits(
	ctx context.Context,
	account *domain.Account,
	txType domain.TransactionType,
	direction domain.TransferDirection,
	amount decimal.Decimal,
	now time.Time,
) error {
	if !txType.IsLimitChecked(direction) {
		return nil
	}

	if account.DailyLimit.IsPositive() {
		spent, err := e.txRepo.SumCompletedDebits(ctx, account.ID, startOfDay(now))
		if err != nil {
			return err
		}
		if spent.Add(amount).GreaterThan(account.DailyLimit) {
			return domain.ErrTransactionLimitExceeded
		}
	}

	if account.MonthlyLimit.IsPositive() {
		spent, err := e.txRepo.SumCompletedDebits(ctx, account.ID, startOfMonth(now))
		if err != nil {
			return err
		}
		if spent.Add(amount).GreaterThan(account.MonthlyLimit) {
			return domain.ErrTransactionLimitExceeded
		}
	}

	return nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
