package amqp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomly/pkg/logger"

	amqp091 "github.com/rabbitmq/amqp091-go"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Delivery is the transport-neutral view of one queued message.
type Delivery struct {
	Key         string
	EventType   string
	Body        []byte
	Redelivered bool
	Timestamp   time.Time
}

// Handler processes one delivery. A nil return acks it.
type Handler func(ctx context.Context, d Delivery) error

// Consumer reads a durable queue with manual acks and reconnects with
// exponential backoff when the broker goes away.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	handler  Handler
	log      *logger.Logger
}

func NewConsumer(url, queue string, prefetch int, handler Handler, log *logger.Logger) (*Consumer, error) {
	if url == "" {
		return nil, fmt.Errorf("amqp url cannot be empty")
	}
	if queue == "" {
		return nil, fmt.Errorf("queue cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if prefetch <= 0 {
		prefetch = 50
	}
	return &Consumer{url: url, queue: queue, prefetch: prefetch, handler: handler, log: log}, nil
}

// Start blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := initialBackoff
	for {
		conn, err := amqp091.Dial(c.url)
		if err != nil {
			c.log.Error("AMQP consumer failed to dial broker", "retry_in", backoff, "error", err)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("AMQP consume loop ended, reconnecting", "error", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp091.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.log.Warn("AMQP consumer failed to set QoS", "error", err)
	}

	if err := declareQueue(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.log.Info("AMQP consumer started", "queue", c.queue, "prefetch", c.prefetch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.dispatch(ctx, d)
		}
	}
}

// dispatch acks on success. A failed delivery is requeued once; on the
// second failure it is dropped so a poison message cannot spin forever.
// Deliveries interrupted by shutdown are always requeued.
func (c *Consumer) dispatch(ctx context.Context, d amqp091.Delivery) {
	delivery := toDelivery(d)
	if err := c.handler(ctx, delivery); err != nil {
		requeue := !d.Redelivered || ctx.Err() != nil
		c.log.Error("AMQP handler failed",
			"queue", c.queue,
			"key", delivery.Key,
			"event_type", delivery.EventType,
			"requeue", requeue,
			"error", err,
		)
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}

func toDelivery(d amqp091.Delivery) Delivery {
	key, _ := d.Headers[HeaderReservationID].(string)
	return Delivery{
		Key:         key,
		EventType:   d.Type,
		Body:        d.Body,
		Redelivered: d.Redelivered,
		Timestamp:   d.Timestamp,
	}
}

func nextBackoff(current time.Duration) time.Duration {
	if current >= maxBackoff {
		return maxBackoff
	}
	return min(current*2, maxBackoff)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
