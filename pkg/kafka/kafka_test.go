package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"roomly/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) Stats() kafka.WriterStats { return kafka.WriterStats{} }

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		msg := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error             { return nil }
func (r *fakeReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_PublishValidation(t *testing.T) {
	p := &Producer{writer: &fakeWriter{}, topic: "reservation-events", log: testLogger()}

	tests := []struct {
		name string
		msg  Message
		want error
	}{
		{"missing key", Message{Value: []byte(`{}`)}, ErrEmptyKey},
		{"missing value", Message{Key: "r-1"}, ErrEmptyValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Publish(context.Background(), tt.msg); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}

	_ = p.Close()
	if err := p.Publish(context.Background(), Message{Key: "r-1", Value: []byte(`{}`)}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrProducerClosed", err)
	}
}

func TestProducer_PublishRunsMiddlewareInOrder(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "reservation-events", log: testLogger()}

	var order []string
	for _, name := range []string{"outer", "inner"} {
		p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	msg, err := NewMessage().WithKey("r-1").WithValue(map[string]string{"id": "r-1"}).WithEventType("reservation.created").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v, want [outer inner]", order)
	}
	if len(w.messages) != 1 {
		t.Fatalf("written = %d, want 1", len(w.messages))
	}
	if string(w.messages[0].Key) != "r-1" {
		t.Errorf("key = %q, want r-1", w.messages[0].Key)
	}
	if headerValue(w.messages[0], HeaderEventType) != "reservation.created" {
		t.Errorf("event-type header missing")
	}
	if headerValue(w.messages[0], HeaderEventID) == "" {
		t.Errorf("event-id header should be generated")
	}
}

func TestProducer_FailedPublishGoesToDLQ(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	dlq := &fakeWriter{}
	p := &Producer{writer: w, dlqWriter: dlq, topic: "reservation-events", dlqTopic: "reservation-events-dlq", log: testLogger()}

	// No headers map at all: the DLQ path must not panic.
	err := p.Publish(context.Background(), Message{Key: "r-1", Value: []byte(`{}`)})
	if err == nil {
		t.Fatal("expected the original error to be returned")
	}

	if len(dlq.messages) != 1 {
		t.Fatalf("dlq messages = %d, want 1", len(dlq.messages))
	}
	got := dlq.messages[0]
	if headerValue(got, HeaderOriginalTopic) != "reservation-events" {
		t.Errorf("original-topic = %q", headerValue(got, HeaderOriginalTopic))
	}
	if headerValue(got, HeaderDLQError) != "connection refused" {
		t.Errorf("dlq-error = %q", headerValue(got, HeaderDLQError))
	}
}

func TestProducer_PublishBatch(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "reservation-events", log: testLogger()}

	if err := p.PublishBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch error = %v, want nil", err)
	}

	batch := []Message{{Key: "a", Value: []byte("1")}, {Key: "", Value: []byte("2")}}
	if err := p.PublishBatch(context.Background(), batch); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("batch with keyless message error = %v, want ErrEmptyKey", err)
	}
	if len(w.messages) != 0 {
		t.Errorf("a rejected batch must not be partially written")
	}

	batch[1].Key = "b"
	if err := p.PublishBatch(context.Background(), batch); err != nil {
		t.Fatalf("PublishBatch() error = %v", err)
	}
	if len(w.messages) != 2 {
		t.Errorf("written = %d, want 2", len(w.messages))
	}
}

func TestConsumer_RetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	c := &Consumer{
		topic:      "reservation-events",
		maxRetries: 3,
		log:        testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			if attempts < 3 {
				return NewTransientError("calendar busy", errors.New("timeout"))
			}
			return nil
		},
	}

	if err := c.processMessage(context.Background(), Message{Key: "r-1", Headers: map[string]string{}}); err != nil {
		t.Fatalf("processMessage() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestConsumer_PermanentFailureGoesToDLQ(t *testing.T) {
	dlq := &fakeWriter{}
	attempts := 0
	c := &Consumer{
		topic:      "reservation-events",
		groupID:    "calendar-sync",
		dlqTopic:   "reservation-events-dlq",
		dlqWriter:  dlq,
		maxRetries: 3,
		log:        testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			return NewPermanentError("invalid message", nil)
		},
	}

	if err := c.processMessage(context.Background(), Message{Key: "r-1", Value: []byte("x"), Headers: map[string]string{}}); err == nil {
		t.Fatal("expected permanent error")
	}
	if attempts != 1 {
		t.Errorf("permanent errors must not be retried, attempts = %d", attempts)
	}
	if len(dlq.messages) != 1 || headerValue(dlq.messages[0], HeaderDLQConsumerGroup) != "calendar-sync" {
		t.Errorf("expected one DLQ message tagged with the consumer group")
	}
}

func TestConsumer_StartCommitsAfterHandling(t *testing.T) {
	reader := &fakeReader{pending: []kafka.Message{
		{Key: []byte("r-1"), Value: []byte("a"), Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte("reservation.created")}}},
		{Key: []byte("r-2"), Value: []byte("b")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var handled []string
	c := &Consumer{
		reader: reader,
		topic:  "reservation-events",
		log:    testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			mu.Lock()
			handled = append(handled, msg.Key)
			done := len(handled) == 2
			mu.Unlock()
			if done {
				cancel()
			}
			return nil
		},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}

	if len(handled) != 2 || handled[0] != "r-1" || handled[1] != "r-2" {
		t.Errorf("handled = %v, want [r-1 r-2]", handled)
	}
	if len(reader.committed) < 1 {
		t.Errorf("expected offsets to be committed")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestMessage_RetryCount(t *testing.T) {
	var msg Message
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("GetRetryCount() = %d, want 12", got)
	}
	if msg.Headers[HeaderRetryCount] != "12" {
		t.Errorf("retry-count header = %q, want 12", msg.Headers[HeaderRetryCount])
	}
}

func TestMessageBuilder_BadValue(t *testing.T) {
	_, err := NewMessage().WithKey("r-1").WithValue(make(chan int)).Build()
	if err == nil || ClassifyError(err) != ErrorTypePermanent {
		t.Errorf("Build() error = %v, want permanent encoding error", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"wrapped transient", NewTransientError("x", nil), ErrorTypeTransient},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"network text is case-insensitive", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"schema", errors.New("schema mismatch on field"), ErrorTypePermanent},
		{"unclassified defaults to permanent", errors.New("boom"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("x", nil)
	if !ShouldRetry(transient, 0, 1) {
		t.Errorf("transient error under the limit should retry")
	}
	if ShouldRetry(transient, 1, 1) {
		t.Errorf("retry limit reached should not retry")
	}
}
