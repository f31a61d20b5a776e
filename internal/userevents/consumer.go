// Package userevents consumes user change events from the users exchange.
package userevents

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"user-service/pkg/events"
	"user-service/pkg/logger"
	"user-service/pkg/rabbitmq"
)

// Consumer logs every user.created and user.deleted event
type Consumer struct {
	consumer *rabbitmq.Consumer
	log      *logger.Logger

	created atomic.Int64
	deleted atomic.Int64
}

// NewConsumer declares and binds queue on exchange for both user event routing keys
func NewConsumer(conn *rabbitmq.Connection, queue, exchange string, log *logger.Logger) (*Consumer, error) {
	consumer, err := rabbitmq.NewConsumer(
		conn,
		queue,
		exchange,
		[]string{events.RoutingKeyUserCreated, events.RoutingKeyUserDeleted},
		log,
	)
	if err != nil {
		return nil, err
	}

	return &Consumer{consumer: consumer, log: log}, nil
}

// Start starts consuming until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.Handle)
}

// Counts returns how many CREATED and DELETED events were handled
func (c *Consumer) Counts() (created, deleted int64) {
	return c.created.Load(), c.deleted.Load()
}

// Handle processes one delivery body. Malformed events are permanent failures.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var event events.UserEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: decode user event: %v", rabbitmq.ErrPermanent, err)
	}
	if event.Email == "" {
		return fmt.Errorf("%w: user event without email", rabbitmq.ErrPermanent)
	}

	switch event.EventType {
	case events.UserCreated:
		c.created.Add(1)
	case events.UserDeleted:
		c.deleted.Add(1)
	default:
		return fmt.Errorf("%w: unknown event type %q", rabbitmq.ErrPermanent, event.EventType)
	}

	c.log.WithContext(ctx).Info("user event received",
		zap.String("event_type", string(event.EventType)),
		zap.String("email", event.Email),
		zap.String("name", event.Name),
	)
	return nil
}
