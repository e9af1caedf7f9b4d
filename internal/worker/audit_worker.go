package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/academic-erp/internal/events"
)

// ErrAuditQueueFull is returned to the publisher when an event had to be dropped.
var ErrAuditQueueFull = errors.New("audit queue full")

const defaultAuditQueueSize = 256

// AuditWorker moves audit delivery off the request goroutine. Events are
// queued by a catch-all subscription and handed to the sink in publish order.
type AuditWorker struct {
	sink   events.EventHandler
	queue  chan events.Event
	logger *zap.Logger
}

// NewAuditWorker creates a worker with a bounded queue.
func NewAuditWorker(sink events.EventHandler, queueSize int, logger *zap.Logger) *AuditWorker {
	if queueSize <= 0 {
		queueSize = defaultAuditQueueSize
	}
	return &AuditWorker{
		sink:   sink,
		queue:  make(chan events.Event, queueSize),
		logger: logger.Named("audit_worker"),
	}
}

// Subscribe attaches the worker to every event type on the dispatcher.
func (w *AuditWorker) Subscribe(dispatcher events.Dispatcher) {
	dispatcher.SubscribeAll(w.enqueue)
}

func (w *AuditWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrAuditQueueFull
	}
}

// Run delivers queued events until ctx is done, then drains what is left.
func (w *AuditWorker) Run(ctx context.Context) error {
	for {
		select {
		case event := <-w.queue:
			w.deliver(event)
		case <-ctx.Done():
			w.drain()
			return nil
		}
	}
}

func (w *AuditWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			w.deliver(event)
		default:
			return
		}
	}
}

func (w *AuditWorker) deliver(event events.Event) {
	if err := w.sink(context.Background(), event); err != nil {
		w.logger.Warn("audit sink failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
