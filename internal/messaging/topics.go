// Package messaging publishes and consumes order events on Kafka with trace
// context carried in message headers.
package messaging

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)
