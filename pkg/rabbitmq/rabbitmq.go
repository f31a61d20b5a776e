package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"user-service/pkg/logger"
)

const maxReconnectDelay = 30 * time.Second

var (
	// resubscribeInterval bounds how long a consumer waits for a reconnect before retrying anyway
	resubscribeInterval = 5 * time.Second
	requeueDelay        = time.Second
)

// ErrPermanent marks a handler failure that must not be redelivered
var ErrPermanent = errors.New("permanent message failure")

// Connection manages a RabbitMQ connection with reconnect capability
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	log        *logger.Logger
	mu         sync.RWMutex
	closeChan  chan struct{}
	closeOnce  sync.Once
	reconnects int
	// reconnected is closed and replaced after every successful dial
	reconnected chan struct{}
}

// NewConnection dials RabbitMQ and keeps the connection alive until Close
func NewConnection(url string, log *logger.Logger) (*Connection, error) {
	c := &Connection{
		url:       url,
		log:       log,
		closeChan: make(chan struct{}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	go c.watch()

	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch

	if c.reconnected != nil {
		close(c.reconnected)
	}
	c.reconnected = make(chan struct{})

	c.log.Info("connected to RabbitMQ", zap.Int("reconnects", c.reconnects))
	return nil
}

// watch re-dials with exponential backoff whenever the broker drops the connection
// or closes the channel
func (c *Connection) watch() {
	for {
		c.mu.RLock()
		conn := c.conn
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chanClosed := c.channel.NotifyClose(make(chan *amqp.Error, 1))
		c.mu.RUnlock()

		var reason *amqp.Error
		select {
		case <-c.closeChan:
			return
		case reason = <-connClosed:
		case reason = <-chanClosed:
		}

		// graceful close from our side
		select {
		case <-c.closeChan:
			return
		default:
		}
		c.log.Warn("RabbitMQ connection lost", zap.Any("reason", reason))
		if !conn.IsClosed() {
			_ = conn.Close()
		}

		delay := time.Second
		for {
			select {
			case <-c.closeChan:
				return
			case <-time.After(delay):
			}

			c.mu.Lock()
			c.reconnects++
			c.mu.Unlock()

			if err := c.connect(); err != nil {
				c.log.Warn("RabbitMQ reconnect failed", zap.Error(err), zap.Duration("retry_in", delay))
				delay *= 2
				if delay > maxReconnectDelay {
					delay = maxReconnectDelay
				}
				continue
			}
			break
		}
	}
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Reconnected returns a channel that is closed once the next reconnect succeeds
func (c *Connection) Reconnected() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnected
}

// Close closes the connection
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.closeChan) })

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publisher publishes JSON messages to a topic exchange
type Publisher struct {
	conn     *Connection
	exchange string
	log      *logger.Logger
}

// NewPublisher declares the exchange and returns a publisher bound to it
func NewPublisher(conn *Connection, exchange string, log *logger.Logger) (*Publisher, error) {
	if err := declareTopic(conn.Channel(), exchange); err != nil {
		return nil, err
	}

	return &Publisher{
		conn:     conn,
		exchange: exchange,
		log:      log,
	}, nil
}

// declareTopic declares a durable topic exchange; declaring an existing one is a no-op
func declareTopic(ch *amqp.Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

// Publish marshals message as JSON and publishes it with the given routing key and headers
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	traceID := logger.GetTraceID(ctx)

	table := amqp.Table{"x-trace-id": traceID}
	for k, v := range headers {
		table[k] = v
	}

	err = p.conn.Channel().PublishWithContext(
		ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     time.Now(),
			MessageId:     uuid.New().String(),
			CorrelationId: traceID,
			Headers:       table,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.log.WithContext(ctx).Debug("message published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
	)

	return nil
}

// Consumer consumes messages from a queue bound to a topic exchange
type Consumer struct {
	conn        *Connection
	queue       string
	exchange    string
	routingKeys []string
	log         *logger.Logger
}

// NewConsumer declares the queue with its dead-letter queue and binds it to the exchange
func NewConsumer(conn *Connection, queue, exchange string, routingKeys []string, log *logger.Logger) (*Consumer, error) {
	c := &Consumer{
		conn:        conn,
		queue:       queue,
		exchange:    exchange,
		routingKeys: routingKeys,
		log:         log,
	}

	if err := c.declare(conn.Channel()); err != nil {
		return nil, err
	}
	return c, nil
}

// declare is idempotent so it can be replayed on a fresh channel after a reconnect
func (c *Consumer) declare(ch *amqp.Channel) error {
	if err := declareTopic(ch, c.exchange); err != nil {
		return err
	}

	dlx := c.exchange + ".dlx"
	if err := ch.ExchangeDeclare(dlx, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead-letter exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(c.queue+".dlq", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead-letter queue: %w", err)
	}
	if err := ch.QueueBind(c.queue+".dlq", "", dlx, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead-letter queue: %w", err)
	}

	_, err := ch.QueueDeclare(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		amqp.Table{
			"x-dead-letter-exchange": dlx,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range c.routingKeys {
		if err := ch.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue: %w", err)
		}
	}
	return nil
}

// MessageHandler handles a single delivery body
type MessageHandler func(ctx context.Context, body []byte) error

// Consume starts consuming messages until ctx is done.
// Handler errors wrapping ErrPermanent are dead-lettered, others are requeued.
// When the delivery channel closes the consumer resubscribes after the connection recovers.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	msgs, err := c.subscribe()
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go c.run(ctx, msgs, c.resubscribe, c.conn.Reconnected, handler)

	c.log.Info("consumer started",
		zap.String("queue", c.queue),
		zap.Strings("routing_keys", c.routingKeys),
	)

	return nil
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	return c.conn.Channel().Consume(
		c.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
}

func (c *Consumer) resubscribe() (<-chan amqp.Delivery, error) {
	if err := c.declare(c.conn.Channel()); err != nil {
		return nil, err
	}
	return c.subscribe()
}

// run delivers messages to handler and reopens the subscription every time msgs closes
func (c *Consumer) run(
	ctx context.Context,
	msgs <-chan amqp.Delivery,
	subscribe func() (<-chan amqp.Delivery, error),
	reconnected func() <-chan struct{},
	handler MessageHandler,
) {
	for {
		c.drain(ctx, msgs, handler)
		if ctx.Err() != nil {
			return
		}

		c.log.Warn("consumer subscription lost, resubscribing", zap.String("queue", c.queue))

		for {
			// taken before the attempt so a reconnect racing a failed attempt is not missed
			next := reconnected()

			var err error
			if msgs, err = subscribe(); err == nil {
				break
			}
			c.log.Warn("resubscribe failed", zap.String("queue", c.queue), zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-next:
			case <-time.After(resubscribeInterval):
			}
		}

		c.log.Info("consumer resubscribed", zap.String("queue", c.queue))
	}
}

// drain handles deliveries until msgs closes or ctx is done
func (c *Consumer) drain(ctx context.Context, msgs <-chan amqp.Delivery, handler MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			c.handle(ctx, msg, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery, handler MessageHandler) {
	traceID, _ := msg.Headers["x-trace-id"].(string)
	msgCtx := logger.WithTraceIDContext(ctx, traceID)

	c.log.WithContext(msgCtx).Debug("message received",
		zap.String("queue", c.queue),
		zap.String("routing_key", msg.RoutingKey),
	)

	if err := handler(msgCtx, msg.Body); err != nil {
		requeue := !errors.Is(err, ErrPermanent)
		c.log.WithContext(msgCtx).Error("failed to handle message",
			zap.Error(err),
			zap.String("queue", c.queue),
			zap.Bool("requeue", requeue),
		)
		if requeue {
			time.Sleep(requeueDelay)
		}
		_ = msg.Nack(false, requeue)
		return
	}
	_ = msg.Ack(false)
}
