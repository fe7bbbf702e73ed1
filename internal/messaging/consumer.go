package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("messaging/consumer")

// HandlerFunc processes one message value. The context carries the producer's
// trace.
type HandlerFunc func(ctx context.Context, payload []byte) error

type discardError struct{ err error }

func (e discardError) Error() string { return e.err.Error() }
func (e discardError) Unwrap() error { return e.err }

// Discard marks err as permanent: the consumer logs it and commits past the
// message instead of stopping.
func Discard(err error) error {
	if err == nil {
		return nil
	}
	return discardError{err: err}
}

// IsDiscarded reports whether err was marked with Discard.
func IsDiscarded(err error) bool {
	var d discardError
	return errors.As(err, &d)
}

type Consumer struct {
	reader  *kafka.Reader
	topic   string
	groupID string
	logger  *slog.Logger
}

type ConsumerOption func(*kafka.ReaderConfig)

func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *kafka.ReaderConfig) { cfg.StartOffset = offset }
}

func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer{
		reader:  kafka.NewReader(cfg),
		topic:   topic,
		groupID: groupID,
		logger:  logger.With("topic", topic, "group", groupID),
	}
}

// Consume runs handler for each message until ctx is done, committing after
// each message is handled. It returns nil on cancellation and the handler's
// error otherwise, leaving that message uncommitted for redelivery.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.process(ctx, msg, handler); err != nil {
			if !IsDiscarded(err) {
				return err
			}
			c.logger.Warn("discarding message", "error", err, "offset", msg.Offset, "partition", msg.Partition)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handler HandlerFunc) error {
	parent := otel.GetTextMapPropagator().Extract(ctx, carrier(&msg))

	ctx, span := consumerTracer.Start(parent, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
		),
	)
	defer span.End()

	if err := handler(ctx, msg.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
