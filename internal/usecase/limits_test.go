package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
	"github.com/finbase/paycore/internal/usecase/mocks"
)

func TestLimitEnforcer_DailyLimit(t *testing.T) {
	now := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)

	account := &domain.Account{
		ID:         "acc-1",
		DailyLimit: decimal.NewFromInt(500),
	}

	txRepo := mocks.NewMockTransactionRepository()
	txRepo.SumCompletedDebitsFunc = func(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
		return decimal.NewFromInt(480), nil
	}

	enforcer := usecase.NewLimitEnforcer(txRepo)
	ctx := context.Background()

	err := enforcer.CheckLimits(ctx, account, domain.TransactionTypeWithdraw, "", decimal.NewFromInt(30), now)
	if !errors.Is(err, domain.ErrTransactionLimitExceeded) {
		t.Fatalf("expected ErrTransactionLimitExceeded for 480+30 over 500, got %v", err)
	}

	err = enforcer.CheckLimits(ctx, account, domain.TransactionTypeWithdraw, "", decimal.NewFromInt(20), now)
	if err != nil {
		t.Fatalf("expected 480+20 to fit exactly within 500, got %v", err)
	}
}

func TestLimitEnforcer_MonthlyLimit(t *testing.T) {
	now := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)

	account := &domain.Account{
		ID:           "acc-1",
		MonthlyLimit: decimal.NewFromInt(1000),
	}

	txRepo := mocks.NewMockTransactionRepository()
	txRepo.SumCompletedDebitsFunc = func(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
		if !since.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected month window from Aug 1, got %s", since)
		}
		return decimal.NewFromInt(950), nil
	}

	enforcer := usecase.NewLimitEnforcer(txRepo)

	err := enforcer.CheckLimits(context.Background(), account, domain.TransactionTypePayment, "", decimal.NewFromInt(51), now)
	if !errors.Is(err, domain.ErrTransactionLimitExceeded) {
		t.Fatalf("expected ErrTransactionLimitExceeded, got %v", err)
	}
}

func TestLimitEnforcer_WindowsResetAtBoundaries(t *testing.T) {
	// 00:30 on the first of the month: both windows start fresh, so prior
	// spend from yesterday and last month is invisible.
	now := time.Date(2026, 9, 1, 0, 30, 0, 0, time.UTC)

	account := &domain.Account{
		ID:           "acc-1",
		DailyLimit:   decimal.NewFromInt(100),
		MonthlyLimit: decimal.NewFromInt(100),
	}

	txRepo := mocks.NewMockTransactionRepository()
	txRepo.SumCompletedDebitsFunc = func(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
		if since.Before(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("window must not reach into the previous period: %s", since)
		}
		return decimal.Zero, nil
	}

	enforcer := usecase.NewLimitEnforcer(txRepo)

	err := enforcer.CheckLimits(context.Background(), account, domain.TransactionTypeWithdraw, "", decimal.NewFromInt(100), now)
	if err != nil {
		t.Fatalf("expected full limit available after reset, got %v", err)
	}
}

func TestLimitEnforcer_CreditTypesNotChecked(t *testing.T) {
	account := &domain.Account{
		ID:         "acc-1",
		DailyLimit: decimal.NewFromInt(1),
	}

	txRepo := mocks.NewMockTransactionRepository()
	txRepo.SumCompletedDebitsFunc = func(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
		t.Fatal("credit types must not query spend")
		return decimal.Zero, nil
	}

	enforcer := usecase.NewLimitEnforcer(txRepo)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, txType := range []domain.TransactionType{
		domain.TransactionTypeDeposit,
		domain.TransactionTypeRefund,
		domain.TransactionTypeInterest,
		domain.TransactionTypeReward,
	} {
		if err := enforcer.CheckLimits(ctx, account, txType, "", decimal.NewFromInt(1000), now); err != nil {
			t.Fatalf("%s: expected no limit check, got %v", txType, err)
		}
	}

	// The inbound transfer leg is a credit to the destination.
	err := enforcer.CheckLimits(ctx, account, domain.TransactionTypeTransfer, domain.TransferDirectionInbound, decimal.NewFromInt(1000), now)
	if err != nil {
		t.Fatalf("inbound transfer leg must not be limit-checked, got %v", err)
	}
}

func TestLimitEnforcer_ZeroLimitMeansUnlimited(t *testing.T) {
	account := &domain.Account{ID: "acc-1"}

	txRepo := mocks.NewMockTransactionRepository()
	txRepo.SumCompletedDebitsFunc = func(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
		t.Fatal("unlimited accounts must not query spend")
		return decimal.Zero, nil
	}

	enforcer := usecase.NewLimitEnforcer(txRepo)

	err := enforcer.CheckLimits(context.Background(), account, domain.TransactionTypeWithdraw, "", decimal.NewFromInt(1000000), time.Now().UTC())
	if err != nil {
		t.Fatalf("expected no limit for zero-limit account, got %v", err)
	}
}
