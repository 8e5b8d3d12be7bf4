package changefeed

import (
	"context"

	"roomly/pkg/amqp"
	"roomly/pkg/kafka"
	"roomly/pkg/model"
)

const eventSource = "roomly-feed-relay"

// Publisher delivers feed events to the event topic.
type Publisher interface {
	Publish(ctx context.Context, event model.ReservationEvent) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher keys every message by reservation id so one record's
// events land on one partition in order.
func NewKafkaPublisher(producer *kafka.Producer) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event model.ReservationEvent) error {
	msg, err := toKafkaMessage(event)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

func toKafkaMessage(event model.ReservationEvent) (kafka.Message, error) {
	body, err := Encode(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.NewMessage().
		WithKey(event.Reservation.ID).
		WithRawValue(body).
		WithEventType(string(event.Type)).
		WithSchemaVersion(SchemaVersion).
		WithSource(eventSource).
		WithTimestamp(event.OccurredAt).
		Build()
}

type amqpPublisher struct {
	publisher *amqp.Publisher
}

func NewAMQPPublisher(publisher *amqp.Publisher) Publisher {
	return &amqpPublisher{publisher: publisher}
}

func (p *amqpPublisher) Publish(ctx context.Context, event model.ReservationEvent) error {
	body, err := Encode(event)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, event.Reservation.ID, string(event.Type), body)
}

func (p *amqpPublisher) Close() error {
	return p.publisher.Close()
}
