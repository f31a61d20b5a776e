package adapters

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"user-service/internal/users/ports"
	"user-service/pkg/events"
	"user-service/pkg/logger"
)

// EventSink delivers one event to the broker. *rabbitmq.Publisher satisfies it.
type EventSink interface {
	Publish(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error
}

const publishTimeout = 5 * time.Second

type queuedEvent struct {
	traceID string
	event   *events.UserEvent
}

// AsyncNotifier queues user events in memory and publishes them from a single
// drain goroutine, so callers never wait on the broker. Delivery failures are
// logged and dropped.
type AsyncNotifier struct {
	sink EventSink
	log  *logger.Logger

	mu      sync.Mutex
	queue   []queuedEvent
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

var _ ports.EventNotifier = (*AsyncNotifier)(nil)

// NewAsyncNotifier creates a notifier. Call Run to start draining.
func NewAsyncNotifier(sink EventSink, log *logger.Logger) *AsyncNotifier {
	return &AsyncNotifier{
		sink:    sink,
		log:     log,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// NotifyCreated enqueues a CREATED event
func (n *AsyncNotifier) NotifyCreated(ctx context.Context, email, name string) {
	n.enqueue(ctx, events.NewUserEvent(events.UserCreated, email, name))
}

// NotifyDeleted enqueues a DELETED event
func (n *AsyncNotifier) NotifyDeleted(ctx context.Context, email, name string) {
	n.enqueue(ctx, events.NewUserEvent(events.UserDeleted, email, name))
}

func (n *AsyncNotifier) enqueue(ctx context.Context, event *events.UserEvent) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.log.WithContext(ctx).Warn("notifier closed, dropping user event",
			zap.String("event_type", string(event.EventType)),
			zap.String("email", event.Email),
		)
		return
	}
	n.queue = append(n.queue, queuedEvent{traceID: logger.GetTraceID(ctx), event: event})
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of events waiting to be published
func (n *AsyncNotifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}

// Run drains the queue until ctx is cancelled or Close has been called and the queue is empty
func (n *AsyncNotifier) Run(ctx context.Context) error {
	defer close(n.stopped)

	for {
		for {
			batch, closed := n.take()
			for _, qe := range batch {
				n.publish(ctx, qe)
			}
			if len(batch) == 0 {
				if closed {
					return nil
				}
				break
			}
		}

		select {
		case <-ctx.Done():
			if left := n.Pending(); left > 0 {
				n.log.Warn("notifier stopped with undelivered events", zap.Int("pending", left))
			}
			return nil
		case <-n.wake:
		}
	}
}

// Close stops accepting events and waits for Run to flush what is queued or for ctx to expire
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}

	select {
	case <-n.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *AsyncNotifier) take() ([]queuedEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	batch := n.queue
	n.queue = nil
	return batch, n.closed
}

func (n *AsyncNotifier) publish(ctx context.Context, qe queuedEvent) {
	// queued events outlive the request that produced them
	msgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	msgCtx = logger.WithTraceIDContext(msgCtx, qe.traceID)
	headers := map[string]string{events.SubjectKeyHeader: qe.event.Email}

	if err := n.sink.Publish(msgCtx, qe.event.EventType.RoutingKey(), qe.event, headers); err != nil {
		n.log.WithContext(msgCtx).Error("failed to publish user event",
			zap.Error(err),
			zap.String("event_type", string(qe.event.EventType)),
			zap.String("email", qe.event.Email),
		)
		return
	}

	n.log.WithContext(msgCtx).Info("user event published",
		zap.String("event_type", string(qe.event.EventType)),
		zap.String("email", qe.event.Email),
	)
}
