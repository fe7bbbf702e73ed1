package messaging

import (
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
)

// headerCarrier exposes Kafka message headers to OTel propagators.
type headerCarrier struct {
	msg *kafka.Message
}

var _ propagation.TextMapCarrier = headerCarrier{}

func carrier(msg *kafka.Message) headerCarrier {
	return headerCarrier{msg: msg}
}

func (c headerCarrier) index(key string) int {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			return i
		}
	}
	return -1
}

func (c headerCarrier) Get(key string) string {
	if i := c.index(key); i >= 0 {
		return string(c.msg.Headers[i].Value)
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	if i := c.index(key); i >= 0 {
		c.msg.Headers[i].Value = []byte(value)
		return
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
