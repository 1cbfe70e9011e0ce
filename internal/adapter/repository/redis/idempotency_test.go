package redis

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestIdempotencyStoreSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	response := []byte(`{"id":"tx-1"}`)
	if err := store.Set(ctx, "key-1", response, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, response) {
		t.Fatalf("expected %s, got %s", response, got)
	}
}

func TestIdempotencyStoreMissReturnsNil(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected no error on miss, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil response on miss, got %s", got)
	}
}
