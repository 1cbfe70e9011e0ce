package redis

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbase/paycore/internal/usecase"
)

func TestBalanceCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewBalanceCache(client, time.Minute)
	ctx := context.Background()

	snapshot := &usecase.BalanceSnapshot{
		AccountID:        "acc-1",
		Balance:          decimal.RequireFromString("100.50"),
		AvailableBalance: decimal.RequireFromString("80.50"),
		BlockedBalance:   decimal.RequireFromString("20.00"),
		Currency:         "BRL",
		CachedAt:         time.Now().UTC(),
	}

	if err := cache.Set(ctx, snapshot); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := cache.Get(ctx, "acc-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if !got.Balance.Equal(snapshot.Balance) {
		t.Fatalf("expected balance %s, got %s", snapshot.Balance, got.Balance)
	}
	if !got.AvailableBalance.Equal(snapshot.AvailableBalance) {
		t.Fatalf("expected available %s, got %s", snapshot.AvailableBalance, got.AvailableBalance)
	}
	if got.Currency != "BRL" {
		t.Fatalf("expected BRL, got %s", got.Currency)
	}
}

func TestBalanceCacheMissReturnsNil(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewBalanceCache(client, time.Minute)

	got, err := cache.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected no error on miss, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot on miss, got %+v", got)
	}
}

func TestBalanceCacheInvalidate(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewBalanceCache(client, time.Minute)
	ctx := context.Background()

	snapshot := &usecase.BalanceSnapshot{
		AccountID: "acc-1",
		Balance:   decimal.NewFromInt(10),
		Currency:  "USD",
		CachedAt:  time.Now().UTC(),
	}

	if err := cache.Set(ctx, snapshot); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Invalidate(ctx, "acc-1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	got, err := cache.Get(ctx, "acc-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil snapshot after invalidation")
	}
}
