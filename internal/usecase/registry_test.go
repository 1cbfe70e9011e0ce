package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
	"github.com/finbase/paycore/internal/usecase/mocks"
)

func newTestRegistry() (*usecase.Registry, *mocks.MockAccountRepository, *mocks.MockTransactionRepository, *mocks.MockNotifier) {
	accountRepo := mocks.NewMockAccountRepository()
	txRepo := mocks.NewMockTransactionRepository()
	notifier := mocks.NewMockNotifier()
	registry := usecase.NewRegistry(
		mocks.NewMockTransactionManager(),
		accountRepo,
		txRepo,
		mocks.NewMockIDGenerator(),
		notifier,
		nil,
	)
	return registry, accountRepo, txRepo, notifier
}

func TestRegistry_CreateAccount(t *testing.T) {
	registry, _, txRepo, notifier := newTestRegistry()

	account, err := registry.CreateAccount(context.Background(), usecase.CreateAccountInput{
		OwnerID:        "owner-1",
		Type:           domain.AccountTypePersonal,
		Currency:       "brl",
		OpeningBalance: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Currency != "BRL" {
		t.Errorf("expected currency normalized to BRL, got %s", account.Currency)
	}
	if !account.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance 100, got %s", account.Balance)
	}
	if !account.AvailableBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected available balance 100, got %s", account.AvailableBalance)
	}
	if account.Status != domain.AccountStatusActive {
		t.Errorf("expected active status, got %s", account.Status)
	}
	if !strings.HasPrefix(account.Number, "PC-") {
		t.Errorf("expected PC- prefixed account number, got %s", account.Number)
	}

	log := txRepo.Log()
	if len(log) != 1 {
		t.Fatalf("expected one opening balance record, got %d", len(log))
	}
	if log[0].Type != domain.TransactionTypeDeposit || log[0].Status != domain.TransactionStatusCompleted {
		t.Errorf("unexpected opening record: %+v", log[0])
	}
	if !log[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected opening amount 100, got %s", log[0].Amount)
	}

	events := notifier.Events()
	if len(events) != 1 || events[0].Type != domain.EventTypeAccountCreated {
		t.Errorf("expected account.created event, got %+v", events)
	}
}

func TestRegistry_CreateAccountZeroOpeningBalance(t *testing.T) {
	registry, _, txRepo, _ := newTestRegistry()

	_, err := registry.CreateAccount(context.Background(), usecase.CreateAccountInput{
		OwnerID:  "owner-1",
		Type:     domain.AccountTypeSavings,
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(txRepo.Log()) != 0 {
		t.Errorf("expected no opening record for zero balance, got %d", len(txRepo.Log()))
	}
}

func TestRegistry_CreateAccountValidation(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.CreateAccountInput
		errorType error
	}{
		{
			name: "unsupported currency",
			input: usecase.CreateAccountInput{
				OwnerID:  "owner-1",
				Type:     domain.AccountTypePersonal,
				Currency: "XYZ",
			},
			errorType: domain.ErrInvalidCurrency,
		},
		{
			name: "negative opening balance",
			input: usecase.CreateAccountInput{
				OwnerID:        "owner-1",
				Type:           domain.AccountTypePersonal,
				Currency:       "USD",
				OpeningBalance: decimal.NewFromInt(-5),
			},
			errorType: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, _, _, _ := newTestRegistry()

			_, err := registry.CreateAccount(context.Background(), tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Fatalf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestRegistry_CreateAccountCapEnforced(t *testing.T) {
	registry, accountRepo, _, _ := newTestRegistry()

	accountRepo.CountByOwnerAndTypeFunc = func(ctx context.Context, ownerID string, accountType domain.AccountType) (int64, error) {
		return domain.MaxPersonalAccounts, nil
	}

	_, err := registry.CreateAccount(context.Background(), usecase.CreateAccountInput{
		OwnerID:  "owner-1",
		Type:     domain.AccountTypePersonal,
		Currency: "USD",
	})
	if !errors.Is(err, domain.ErrAccountLimitExceeded) {
		t.Fatalf("expected ErrAccountLimitExceeded, got %v", err)
	}
}

func TestRegistry_CreateAccountCapDoesNotApplyToEscrow(t *testing.T) {
	registry, accountRepo, _, _ := newTestRegistry()

	accountRepo.CountByOwnerAndTypeFunc = func(ctx context.Context, ownerID string, accountType domain.AccountType) (int64, error) {
		t.Fatal("cap check should not run for escrow accounts")
		return 0, nil
	}

	_, err := registry.CreateAccount(context.Background(), usecase.CreateAccountInput{
		OwnerID:  "owner-1",
		Type:     domain.AccountTypeEscrow,
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry_GetAccountOwnership(t *testing.T) {
	registry, accountRepo, _, _ := newTestRegistry()

	accountRepo.Put(&domain.Account{ID: "acc-1", OwnerID: "owner-1", Status: domain.AccountStatusActive})

	if _, err := registry.GetAccount(context.Background(), "acc-1", "owner-1"); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}

	if _, err := registry.GetAccount(context.Background(), "acc-1", ""); err != nil {
		t.Fatalf("unscoped lookup failed: %v", err)
	}

	_, err := registry.GetAccount(context.Background(), "acc-1", "owner-2")
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	_, err = registry.GetAccount(context.Background(), "missing", "owner-1")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRegistry_CloseAccount(t *testing.T) {
	registry, accountRepo, _, _ := newTestRegistry()

	account := &domain.Account{ID: "acc-1", OwnerID: "owner-1", Status: domain.AccountStatusActive}
	accountRepo.Put(account)

	if err := registry.CloseAccount(context.Background(), "acc-1", "owner-1"); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if account.Status != domain.AccountStatusClosed {
		t.Errorf("expected closed status, got %s", account.Status)
	}
}
