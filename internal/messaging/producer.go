package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var producerTracer = otel.Tracer("messaging/producer")

// Producer writes JSON events to a single topic, keyed by order id so all
// events of one order land on the same partition.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

type ProducerOption func(*kafka.Writer)

func WithBatchTimeout(d time.Duration) ProducerOption {
	return func(w *kafka.Writer) { w.BatchTimeout = d }
}

func NewProducer(brokers []string, topic string, opts ...ProducerOption) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
	}
	for _, opt := range opts {
		opt(w)
	}
	return &Producer{writer: w, topic: topic}
}

func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", p.topic, err)
	}

	ctx, span := producerTracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(key),
			semconv.MessagingMessageBodySize(len(data)),
		),
	)
	defer span.End()

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: []kafka.Header{{Key: "content-type", Value: []byte("application/json")}},
	}
	otel.GetTextMapPropagator().Inject(ctx, carrier(&msg))

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
