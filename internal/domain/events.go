package domain

import "time"

type OrderCreatedEvent struct {
	OrderID       string      `json:"orderId"`
	CustomerID    string      `json:"customerId"`
	CustomerEmail string      `json:"customerEmail"`
	Items         []OrderItem `json:"items"`
	GrandTotal    int64       `json:"grandTotal"`
	Timestamp     time.Time   `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID       string      `json:"orderId"`
	CustomerID    string      `json:"customerId"`
	CustomerEmail string      `json:"customerEmail"`
	From          OrderStatus `json:"from"`
	To            OrderStatus `json:"to"`
	ActorID       string      `json:"actorId"`
	ActorRole     Role        `json:"actorRole"`
	RiderID       string      `json:"riderId,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
