package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_CanDebit(t *testing.T) {
	tests := []struct {
		name        string
		available   decimal.Decimal
		debitAmount decimal.Decimal
		expectError bool
	}{
		{
			name:        "debit less than available",
			available:   decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
			expectError: false,
		},
		{
			name:        "debit exact available",
			available:   decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
			expectError: false,
		},
		{
			name:        "debit more than available",
			available:   decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{
				Balance:          tt.available,
				AvailableBalance: tt.available,
			}

			err := acc.CanDebit(tt.debitAmount)

			if tt.expectError && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("expected ErrInsufficientFunds, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccount_ApplyMaintainsAvailableInvariant(t *testing.T) {
	acc := &Account{
		Balance:          decimal.NewFromInt(100),
		AvailableBalance: decimal.NewFromInt(70),
		BlockedBalance:   decimal.NewFromInt(30),
	}

	acc.ApplyDebit(decimal.NewFromInt(20))
	if !acc.Balance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected balance 80, got %s", acc.Balance)
	}
	if !acc.AvailableBalance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected available 50, got %s", acc.AvailableBalance)
	}

	acc.ApplyCredit(decimal.NewFromInt(40))
	if !acc.Balance.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected balance 120, got %s", acc.Balance)
	}
	if !acc.AvailableBalance.Equal(acc.Balance.Sub(acc.BlockedBalance)) {
		t.Errorf("available invariant broken: %s != %s - %s", acc.AvailableBalance, acc.Balance, acc.BlockedBalance)
	}
}

func TestAccount_BlockUnblock(t *testing.T) {
	acc := &Account{
		Balance:          decimal.NewFromInt(100),
		AvailableBalance: decimal.NewFromInt(100),
	}

	if err := acc.Block(decimal.NewFromInt(40)); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if !acc.AvailableBalance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected available 60, got %s", acc.AvailableBalance)
	}

	err := acc.Block(decimal.NewFromInt(70))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds blocking beyond available, got %v", err)
	}

	err = acc.Unblock(decimal.NewFromInt(50))
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount unblocking beyond blocked, got %v", err)
	}

	if err := acc.Unblock(decimal.NewFromInt(40)); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if !acc.AvailableBalance.Equal(decimal.NewFromInt(100)) || !acc.BlockedBalance.IsZero() {
		t.Errorf("expected available 100 / blocked 0, got %s / %s", acc.AvailableBalance, acc.BlockedBalance)
	}
}

func TestAccount_IsActive(t *testing.T) {
	statuses := map[AccountStatus]bool{
		AccountStatusActive:              true,
		AccountStatusSuspended:           false,
		AccountStatusBlocked:             false,
		AccountStatusClosed:              false,
		AccountStatusPendingVerification: false,
	}

	for status, want := range statuses {
		acc := &Account{Status: status}
		if acc.IsActive() != want {
			t.Errorf("status %s: expected IsActive=%v", status, want)
		}
	}
}
