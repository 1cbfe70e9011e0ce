package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/usecase"
	"github.com/finbase/paycore/internal/usecase/mocks"
)

type reconcilerFixture struct {
	reconciler  *usecase.Reconciler
	accountRepo *mocks.MockAccountRepository
	txRepo      *mocks.MockTransactionRepository
	cache       *mocks.MockBalanceCache
	notifier    *mocks.MockNotifier
}

func newReconcilerFixture() *reconcilerFixture {
	f := &reconcilerFixture{
		accountRepo: mocks.NewMockAccountRepository(),
		txRepo:      mocks.NewMockTransactionRepository(),
		cache:       mocks.NewMockBalanceCache(),
		notifier:    mocks.NewMockNotifier(),
	}

	f.reconciler = usecase.NewReconciler(usecase.ReconcilerConfig{
		TxManager:       mocks.NewMockTransactionManager(),
		AccountRepo:     f.accountRepo,
		TransactionRepo: f.txRepo,
		Cache:           f.cache,
		Notifier:        f.notifier,
		Logger:          zerolog.Nop(),
		SnapshotMaxAge:  30 * time.Second,
	})

	return f
}

func TestReconciler_GetBalanceServesFreshSnapshot(t *testing.T) {
	f := newReconcilerFixture()

	f.accountRepo.GetByIDFunc = func(ctx context.Context, id string) (*domain.Account, error) {
		t.Fatal("fresh snapshot must not hit the durable store")
		return nil, nil
	}

	cached := &usecase.BalanceSnapshot{
		AccountID: "acc-1",
		Balance:   decimal.NewFromInt(100),
		Currency:  "BRL",
		CachedAt:  time.Now().UTC(),
	}
	_ = f.cache.Set(context.Background(), cached)

	snapshot, err := f.reconciler.GetBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected cached balance 100, got %s", snapshot.Balance)
	}
}

func TestReconciler_GetBalanceRefreshesStaleSnapshot(t *testing.T) {
	f := newReconcilerFixture()

	f.accountRepo.Put(&domain.Account{
		ID:               "acc-1",
		Currency:         "BRL",
		Balance:          decimal.NewFromInt(250),
		AvailableBalance: decimal.NewFromInt(250),
	})

	stale := &usecase.BalanceSnapshot{
		AccountID: "acc-1",
		Balance:   decimal.NewFromInt(100),
		Currency:  "BRL",
		CachedAt:  time.Now().UTC().Add(-time.Minute),
	}
	_ = f.cache.Set(context.Background(), stale)

	snapshot, err := f.reconciler.GetBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected refreshed balance 250, got %s", snapshot.Balance)
	}

	refreshed, _ := f.cache.Get(context.Background(), "acc-1")
	if refreshed == nil || !refreshed.Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected cache refreshed to 250, got %+v", refreshed)
	}
}

func TestReconciler_RecomputeCorrectsDrift(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	account := &domain.Account{
		ID:               "acc-1",
		Currency:         "BRL",
		Balance:          decimal.NewFromInt(120),
		AvailableBalance: decimal.NewFromInt(100),
		BlockedBalance:   decimal.NewFromInt(20),
	}
	f.accountRepo.Put(account)

	// The durable log says the account actually holds 80.
	f.txRepo.SumCompletedSignedFunc = func(ctx context.Context, accountID string) (decimal.Decimal, error) {
		return decimal.NewFromInt(80), nil
	}

	_ = f.cache.Set(ctx, &usecase.BalanceSnapshot{AccountID: "acc-1", Balance: decimal.NewFromInt(120), CachedAt: time.Now().UTC()})

	canonical, err := f.reconciler.Recompute(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !canonical.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected canonical 80, got %s", canonical)
	}
	if !account.Balance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected stored balance corrected to 80, got %s", account.Balance)
	}
	if !account.AvailableBalance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected available 60 after correction, got %s", account.AvailableBalance)
	}
	if !account.BlockedBalance.Equal(decimal.NewFromInt(20)) {
		t.Errorf("blocked funds must survive correction, got %s", account.BlockedBalance)
	}

	if snapshot, _ := f.cache.Get(ctx, "acc-1"); snapshot != nil {
		t.Errorf("expected snapshot invalidated, got %+v", snapshot)
	}

	events := f.notifier.Events()
	if len(events) != 1 || events[0].Type != domain.EventTypeBalanceReconciled {
		t.Fatalf("expected balance.reconciled event, got %+v", events)
	}
	if events[0].Payload["drift"] != "40" {
		t.Errorf("expected drift 40 in payload, got %+v", events[0].Payload)
	}
}

func TestReconciler_RecomputeIgnoresSubEpsilonDrift(t *testing.T) {
	f := newReconcilerFixture()

	account := &domain.Account{
		ID:               "acc-1",
		Balance:          decimal.RequireFromString("100.00005"),
		AvailableBalance: decimal.RequireFromString("100.00005"),
	}
	f.accountRepo.Put(account)

	f.txRepo.SumCompletedSignedFunc = func(ctx context.Context, accountID string) (decimal.Decimal, error) {
		return decimal.NewFromInt(100), nil
	}

	if _, err := f.reconciler.Recompute(context.Background(), "acc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !account.Balance.Equal(decimal.RequireFromString("100.00005")) {
		t.Errorf("sub-epsilon drift must not be corrected, got %s", account.Balance)
	}
	if len(f.notifier.Events()) != 0 {
		t.Errorf("expected no events, got %+v", f.notifier.Events())
	}
}

func TestReconciler_SweepVisitsAllAccounts(t *testing.T) {
	f := newReconcilerFixture()

	for _, id := range []string{"acc-1", "acc-2", "acc-3"} {
		f.accountRepo.Put(&domain.Account{ID: id, Balance: decimal.NewFromInt(10)})
	}

	visited := map[string]int{}
	f.txRepo.SumCompletedSignedFunc = func(ctx context.Context, accountID string) (decimal.Decimal, error) {
		visited[accountID]++
		return decimal.NewFromInt(10), nil
	}

	if err := f.reconciler.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(visited) != 3 {
		t.Errorf("expected all three accounts visited, got %+v", visited)
	}
	for id, n := range visited {
		if n != 1 {
			t.Errorf("account %s visited %d times", id, n)
		}
	}
}
