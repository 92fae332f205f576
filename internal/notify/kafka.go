package notify

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/erazemk/izposoja/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Producer writes messages to a Kafka topic. *kafka.Writer implements it.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns an asynchronous writer for topic. Messages with
// the same key land on the same partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// KafkaNotifier publishes events as JSON, keyed by the record they are
// about so each record's events stay ordered. The trace context of the
// operation that caused the event travels in the message headers.
type KafkaNotifier struct {
	producer   Producer
	propagator propagation.TextMapPropagator
}

// NewKafkaNotifier creates a notifier publishing through p.
func NewKafkaNotifier(p Producer) *KafkaNotifier {
	return &KafkaNotifier{producer: p}
}

// Notify publishes the event.
func (n *KafkaNotifier) Notify(ctx context.Context, e model.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	headers := []kafka.Header{{Key: "event-type", Value: []byte(e.Type)}}

	propagator := n.propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	carrier := propagation.MapCarrier{}
	propagator.Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	err = n.producer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(e.Subject()),
		Value:   payload,
		Time:    e.OccurredAt,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("publishing %s event: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the producer.
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
