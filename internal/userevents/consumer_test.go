package userevents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"user-service/pkg/logger"
	"user-service/pkg/rabbitmq"
)

func newTestConsumer() (*Consumer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return &Consumer{log: &logger.Logger{Logger: zap.New(core)}}, logs
}

func TestHandle_LogsKnownEvents(t *testing.T) {
	c, logs := newTestConsumer()
	ctx := logger.WithTraceIDContext(context.Background(), "trace-5")

	require.NoError(t, c.Handle(ctx, []byte(`{"eventType":"CREATED","email":"ann@x.com","name":"Ann"}`)))
	require.NoError(t, c.Handle(ctx, []byte(`{"eventType":"DELETED","email":"ann@x.com","name":"Ann"}`)))

	created, deleted := c.Counts()
	assert.Equal(t, int64(1), created)
	assert.Equal(t, int64(1), deleted)

	entries := logs.FilterMessage("user event received").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "CREATED", fields["event_type"])
	assert.Equal(t, "ann@x.com", fields["email"])
	assert.Equal(t, "trace-5", fields["trace_id"])
}

func TestHandle_MalformedEventsArePermanent(t *testing.T) {
	c, logs := newTestConsumer()

	cases := map[string]string{
		"not json":      `{"eventType":`,
		"missing email": `{"eventType":"CREATED","name":"Ann"}`,
		"unknown type":  `{"eventType":"UPDATED","email":"ann@x.com","name":"Ann"}`,
	}
	for name, body := range cases {
		err := c.Handle(context.Background(), []byte(body))
		assert.ErrorIs(t, err, rabbitmq.ErrPermanent, name)
	}

	created, deleted := c.Counts()
	assert.Zero(t, created)
	assert.Zero(t, deleted)
	assert.Zero(t, logs.Len())
}
