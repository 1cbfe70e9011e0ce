package notifier_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/infrastructure/notifier"
	"github.com/finbase/paycore/internal/infrastructure/notifier/mocks"
)

func TestDispatcher_DeliversEnqueuedEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var (
		mu        sync.Mutex
		delivered []*domain.Event
	)

	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, event *domain.Event) error {
			mu.Lock()
			defer mu.Unlock()
			delivered = append(delivered, event)
			return nil
		},
	).Times(2)

	d := notifier.NewDispatcher(notifier.Config{
		Publisher: publisher,
		Logger:    zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Start(ctx) }()

	d.Notify(domain.EventTypeTransactionCompleted, map[string]any{"transaction_id": "tx-1"})
	d.Notify(domain.EventTypeTransferCompleted, map[string]any{"reference_id": "ref-1"})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(delivered)
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected 2 deliveries, got %d", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	if delivered[0].Type != domain.EventTypeTransactionCompleted {
		t.Errorf("unexpected first event: %+v", delivered[0])
	}
	if delivered[0].ID == "" || delivered[0].CreatedAt.IsZero() {
		t.Errorf("event must carry ID and timestamp: %+v", delivered[0])
	}
}

func TestDispatcher_FlushesOnShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	d := notifier.NewDispatcher(notifier.Config{
		Publisher: publisher,
		Logger:    zerolog.Nop(),
	})

	// Enqueue before the worker starts, then cancel immediately: delivery
	// happens through the shutdown flush.
	for i := 0; i < 3; i++ {
		d.Notify(domain.EventTypeTransactionCompleted, map[string]any{"n": i})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = d.Start(ctx)
	d.Wait()
}

func TestDispatcher_DropsWhenBufferFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No worker is running and the buffer holds one event; the second
	// Notify must drop instead of blocking.
	d := notifier.NewDispatcher(notifier.Config{
		Publisher:  mocks.NewMockPublisher(ctrl),
		Logger:     zerolog.Nop(),
		BufferSize: 1,
	})

	done := make(chan struct{})
	go func() {
		d.Notify(domain.EventTypeTransactionCompleted, map[string]any{"n": 1})
		d.Notify(domain.EventTypeTransactionCompleted, map[string]any{"n": 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify must never block")
	}
}

func TestDispatcher_PublisherFailureDoesNotStopWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var (
		mu    sync.Mutex
		calls int
	)

	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, event *domain.Event) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return context.DeadlineExceeded
			}
			return nil
		},
	).Times(2)

	d := notifier.NewDispatcher(notifier.Config{
		Publisher: publisher,
		Logger:    zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Start(ctx) }()

	d.Notify(domain.EventTypeTransactionFailed, map[string]any{"n": 1})
	d.Notify(domain.EventTypeTransactionCompleted, map[string]any{"n": 2})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected 2 publish attempts, got %d", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	d.Wait()
}
