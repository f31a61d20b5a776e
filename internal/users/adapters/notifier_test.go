package adapters

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-service/pkg/events"
	"user-service/pkg/logger"
)

type publishedEvent struct {
	routingKey string
	event      events.UserEvent
	headers    map[string]string
	traceID    string
}

type fakeSink struct {
	mu        sync.Mutex
	published []publishedEvent
	err       error
	block     chan struct{}
}

func (f *fakeSink) Publish(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedEvent{
		routingKey: routingKey,
		event:      *message.(*events.UserEvent),
		headers:    headers,
		traceID:    logger.GetTraceID(ctx),
	})
	return nil
}

func (f *fakeSink) snapshot() []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedEvent(nil), f.published...)
}

func startNotifier(t *testing.T, sink EventSink) (*AsyncNotifier, context.CancelFunc) {
	t.Helper()
	n := NewAsyncNotifier(sink, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = n.Run(ctx) }()
	t.Cleanup(cancel)
	return n, cancel
}

func TestAsyncNotifier_PublishesInSubmissionOrder(t *testing.T) {
	sink := &fakeSink{}
	n, _ := startNotifier(t, sink)

	ctx := logger.WithTraceIDContext(context.Background(), "trace-9")
	n.NotifyCreated(ctx, "ann@x.com", "Ann")
	n.NotifyDeleted(ctx, "ann@x.com", "Ann")

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.Close(closeCtx))

	got := sink.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "user.created", got[0].routingKey)
	assert.Equal(t, events.UserEvent{EventType: events.UserCreated, Email: "ann@x.com", Name: "Ann"}, got[0].event)
	assert.Equal(t, "user.deleted", got[1].routingKey)
	assert.Equal(t, events.UserDeleted, got[1].event.EventType)
	assert.Equal(t, "ann@x.com", got[1].headers[events.SubjectKeyHeader])
	assert.Equal(t, "trace-9", got[0].traceID)
}

func TestAsyncNotifier_DoesNotBlockCaller(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	n, _ := startNotifier(t, sink)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			n.NotifyCreated(context.Background(), "ann@x.com", "Ann")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify blocked on a stalled broker")
	}

	close(sink.block)
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.Close(closeCtx))
	assert.Len(t, sink.snapshot(), 100)
}

func TestAsyncNotifier_SwallowsBrokerFailures(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker unreachable")}
	n, _ := startNotifier(t, sink)

	assert.NotPanics(t, func() {
		n.NotifyCreated(context.Background(), "ann@x.com", "Ann")
	})

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.Close(closeCtx))
	assert.Zero(t, n.Pending())
}

func TestAsyncNotifier_DropsAfterClose(t *testing.T) {
	sink := &fakeSink{}
	n, _ := startNotifier(t, sink)

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.Close(closeCtx))

	n.NotifyDeleted(context.Background(), "late@x.com", "Late")

	assert.Zero(t, n.Pending())
	assert.Empty(t, sink.snapshot())
}

func TestAsyncNotifier_CloseTimesOutWhenNotRunning(t *testing.T) {
	n := NewAsyncNotifier(&fakeSink{}, logger.NewNop())
	n.NotifyCreated(context.Background(), "ann@x.com", "Ann")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, n.Close(ctx), context.DeadlineExceeded)
	assert.Equal(t, 1, n.Pending())
}
