package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrMalformedMessage marks a payload that can never be processed. The
// consumer drops such messages instead of requeueing them.
var ErrMalformedMessage = errors.New("malformed message")

// HandlerFunc processes one message body. A nil return acknowledges the
// message. A returned error leaves it unacknowledged so the broker redelivers
// it, except when the error wraps ErrMalformedMessage.
type HandlerFunc func(ctx context.Context, body []byte) error

const (
	prefetchCount  = 50
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second

	// A connection that stayed up this long resets the backoff escalation.
	stableSession = time.Minute
)

// Consumer runs one durable queue subscription per registered topic over a
// single broker connection, reconnecting with capped exponential backoff when
// the connection drops.
type Consumer struct {
	url      string
	logger   *slog.Logger
	handlers map[string]HandlerFunc
}

func NewConsumer(url string, logger *slog.Logger) *Consumer {
	return &Consumer{
		url:      url,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers fn for a topic. Registration must finish before Start.
func (c *Consumer) Handle(topic string, fn HandlerFunc) {
	c.handlers[topic] = fn
}

// Dispatch runs the handler registered for topic against body. The delivery
// loop goes through here; tests can use it to exercise handlers without a
// broker.
func (c *Consumer) Dispatch(ctx context.Context, topic string, body []byte) error {
	fn, ok := c.handlers[topic]
	if !ok {
		return fmt.Errorf("no handler registered for topic %s", topic)
	}
	return fn(ctx, body)
}

// Start blocks until ctx is cancelled, consuming all registered topics.
// Every failed dial and every lost connection waits out the current backoff
// before the next attempt; only a connection that stayed up resets it.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := initialBackoff

	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Error("failed to dial broker", "error", err, "retry_in", backoff)
		} else {
			connectedAt := time.Now()

			err = c.consumeAll(ctx, conn)
			conn.Close()

			if ctx.Err() != nil {
				return ctx.Err()
			}

			backoff = reconnectDelay(time.Since(connectedAt), backoff)
			c.logger.Warn("broker connection lost, reconnecting", "error", err, "retry_in", backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = escalate(backoff)
	}
}

// reconnectDelay picks the wait after a lost connection. A session that
// lasted proves the broker was healthy, so the escalation starts over; a
// session that died immediately keeps the current backoff.
func reconnectDelay(sessionLen, current time.Duration) time.Duration {
	if sessionLen >= stableSession {
		return initialBackoff
	}
	return current
}

func escalate(backoff time.Duration) time.Duration {
	backoff *= 2
	if backoff > maxBackoff {
		return maxBackoff
	}
	return backoff
}

func (c *Consumer) consumeAll(ctx context.Context, conn *amqp.Connection) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(c.handlers))

	for topic := range c.handlers {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			errCh <- c.consumeTopic(ctx, conn, topic)
		}(topic)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case amqpErr := <-closed:
		if amqpErr != nil {
			err = amqpErr
		}
	case err = <-errCh:
	}

	// Closing the connection unblocks the per-topic loops.
	conn.Close()
	wg.Wait()

	return err
}

func (c *Consumer) consumeTopic(ctx context.Context, conn *amqp.Connection, topic string) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.Consume(topic, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, topic, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, topic string, d amqp.Delivery) {
	err := c.Dispatch(ctx, topic, d.Body)
	switch classify(err) {
	case ackMessage:
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack message", "topic", topic, "error", ackErr)
		}
	case dropMessage:
		c.logger.Warn("dropping malformed message", "topic", topic, "error", err)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("failed to nack message", "topic", topic, "error", nackErr)
		}
	case requeueMessage:
		c.logger.Error("handler failed, message will be redelivered", "topic", topic, "error", err)
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", "topic", topic, "error", nackErr)
		}
	}
}

type ackAction int

const (
	ackMessage ackAction = iota
	dropMessage
	requeueMessage
)

// classify maps a handler outcome to a broker acknowledgement. Benign
// outcomes are acked by handlers returning nil; only transient failures earn
// a redelivery.
func classify(err error) ackAction {
	switch {
	case err == nil:
		return ackMessage
	case errors.Is(err, ErrMalformedMessage):
		return dropMessage
	default:
		return requeueMessage
	}
}
