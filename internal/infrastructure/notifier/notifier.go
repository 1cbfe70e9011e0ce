package notifier

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/finbase/paycore/internal/domain"
	"github.com/finbase/paycore/internal/infrastructure/metrics"
)

// Publisher delivers a single event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// Dispatcher decouples event emission from delivery: Notify enqueues onto
// a bounded buffer and returns immediately, and a worker drains the buffer
// toward the publisher. A full buffer drops the event; notification loss
// never blocks or fails a financial mutation.
type Dispatcher struct {
	publisher Publisher
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	queue     chan *domain.Event
	done      chan struct{}
}

// Config for Dispatcher.
type Config struct {
	Publisher  Publisher
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	BufferSize int
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 1024
	}

	return &Dispatcher{
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		queue:     make(chan *domain.Event, cfg.BufferSize),
		done:      make(chan struct{}),
	}
}

// Notify enqueues an event. Never blocks.
func (d *Dispatcher) Notify(eventType string, payload map[string]any) {
	event := &domain.Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	select {
	case d.queue <- event:
	default:
		if d.metrics != nil {
			d.metrics.NotificationsDropped.Inc()
		}
		d.logger.Warn().Str("event_type", eventType).Msg("notification queue full, event dropped")
	}
}

// Start drains the queue until the context is cancelled, then flushes
// whatever is still buffered.
func (d *Dispatcher) Start(ctx context.Context) error {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			d.flush()
			return ctx.Err()
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

// Wait blocks until the worker has stopped.
func (d *Dispatcher) Wait() {
	<-d.done
}

func (d *Dispatcher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event *domain.Event) {
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Error().Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("failed to publish event")
		return
	}

	if d.metrics != nil {
		d.metrics.NotificationsSent.Inc()
	}
}

// LogPublisher writes events to the log. Default backend.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.Event) error {
	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Interface("payload", event.Payload).
		Msg("event published")

	return nil
}
