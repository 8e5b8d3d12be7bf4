// Package amqp carries reservation events over a durable RabbitMQ queue as
// an alternative to the Kafka topic.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roomly/pkg/logger"

	amqp091 "github.com/rabbitmq/amqp091-go"
)

const HeaderReservationID = "reservation-id"

var ErrPublisherClosed = errors.New("amqp publisher is closed")

// Publisher writes persistent messages to one durable queue through the
// default exchange. The connection is opened lazily and re-dialled after a
// failure.
type Publisher struct {
	url   string
	queue string
	log   *logger.Logger

	mu     sync.Mutex
	conn   *amqp091.Connection
	ch     *amqp091.Channel
	closed bool
}

func NewPublisher(url, queue string, log *logger.Logger) (*Publisher, error) {
	if url == "" {
		return nil, fmt.Errorf("amqp url cannot be empty")
	}
	if queue == "" {
		return nil, fmt.Errorf("queue cannot be empty")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Publisher{url: url, queue: queue, log: log}, nil
}

// Publish sends body and waits for the broker to confirm it.
func (p *Publisher) Publish(ctx context.Context, key, eventType string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         eventType,
			Headers:      amqp091.Table{HeaderReservationID: key},
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("amqp confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("amqp publish to %s was nacked by the broker", p.queue)
	}
	return nil
}

// channel returns an open confirm-mode channel, dialling when needed.
// Callers hold p.mu.
func (p *Publisher) channel() (*amqp091.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp091.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel open: %w", err)
	}

	if err := declareQueue(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp confirm mode: %w", err)
	}

	p.conn, p.ch = conn, ch
	p.log.Info("AMQP publisher connected", "queue", p.queue)
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.reset()
	return nil
}

func declareQueue(ch *amqp091.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}
	return nil
}
