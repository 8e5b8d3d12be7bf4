package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"roomly/pkg/kafka"
	"roomly/pkg/logger"
)

// Metrics holds Kafka operation counters. The zero value is ready to use.
type Metrics struct {
	messagesPublished       atomic.Int64
	messagesPublishedFailed atomic.Int64
	publishDurationTotal    atomic.Int64

	messagesConsumed       atomic.Int64
	messagesConsumedFailed atomic.Int64
	consumeDurationTotal   atomic.Int64
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	Published          int64
	PublishFailed      int64
	AvgPublishDuration time.Duration
	Consumed           int64
	ConsumeFailed      int64
	AvgConsumeDuration time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Reset() {
	m.messagesPublished.Store(0)
	m.messagesPublishedFailed.Store(0)
	m.publishDurationTotal.Store(0)
	m.messagesConsumed.Store(0)
	m.messagesConsumedFailed.Store(0)
	m.consumeDurationTotal.Store(0)
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Published:          m.messagesPublished.Load(),
		PublishFailed:      m.messagesPublishedFailed.Load(),
		AvgPublishDuration: average(m.publishDurationTotal.Load(), m.messagesPublished.Load()+m.messagesPublishedFailed.Load()),
		Consumed:           m.messagesConsumed.Load(),
		ConsumeFailed:      m.messagesConsumedFailed.Load(),
		AvgConsumeDuration: average(m.consumeDurationTotal.Load(), m.messagesConsumed.Load()+m.messagesConsumedFailed.Load()),
	}
}

// Log writes the current snapshot as one structured record.
func (m *Metrics) Log(log *logger.Logger) {
	s := m.Snapshot()
	log.Info("kafka metrics",
		"published", s.Published,
		"publish_failed", s.PublishFailed,
		"avg_publish_duration", s.AvgPublishDuration,
		"consumed", s.Consumed,
		"consume_failed", s.ConsumeFailed,
		"avg_consume_duration", s.AvgConsumeDuration,
	)
}

func average(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

// MetricsProducerMiddleware tracks producer metrics
func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		m.publishDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.messagesPublishedFailed.Add(1)
		} else {
			m.messagesPublished.Add(1)
		}

		return err
	}
}

// MetricsConsumerMiddleware tracks consumer metrics
func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)

		m.consumeDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.messagesConsumedFailed.Add(1)
		} else {
			m.messagesConsumed.Add(1)
		}

		return err
	}
}
