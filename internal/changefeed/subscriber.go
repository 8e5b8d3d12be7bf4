package changefeed

import (
	"context"
	"errors"

	"roomly/pkg/amqp"
	"roomly/pkg/kafka"
	"roomly/pkg/model"
)

// Handler consumes one decoded feed event.
type Handler func(ctx context.Context, event model.ReservationEvent) error

// Subscriber runs a handler over the event topic until ctx is cancelled.
type Subscriber interface {
	Start(ctx context.Context) error
	Close() error
}

// KafkaHandler adapts h to a Kafka message handler. Undecodable payloads
// are permanent failures and go to the DLQ.
func KafkaHandler(h Handler) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := Decode(msg.Value)
		if err != nil {
			return kafka.NewPermanentError("invalid message", err)
		}
		return h(ctx, event)
	}
}

// AMQPHandler adapts h to an AMQP delivery handler.
func AMQPHandler(h Handler) amqp.Handler {
	return func(ctx context.Context, d amqp.Delivery) error {
		event, err := Decode(d.Body)
		if err != nil {
			return err
		}
		return h(ctx, event)
	}
}

type amqpSubscriber struct {
	consumer *amqp.Consumer
}

func NewAMQPSubscriber(consumer *amqp.Consumer) Subscriber {
	return &amqpSubscriber{consumer: consumer}
}

func (s *amqpSubscriber) Start(ctx context.Context) error {
	err := s.consumer.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *amqpSubscriber) Close() error { return nil }

type kafkaSubscriber struct {
	consumer *kafka.Consumer
}

func NewKafkaSubscriber(consumer *kafka.Consumer) Subscriber {
	return &kafkaSubscriber{consumer: consumer}
}

func (s *kafkaSubscriber) Start(ctx context.Context) error {
	err := s.consumer.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *kafkaSubscriber) Close() error {
	return s.consumer.Close()
}
