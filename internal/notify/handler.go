// Package notify turns order status changes into customer emails.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/messaging"
)

type message struct {
	subject string
	body    string
}

// Statuses a customer hears about. preparing is vendor-internal.
var messages = map[domain.OrderStatus]message{
	domain.OrderStatusConfirmed: {"Order confirmed", "Your order %s has been confirmed and will be prepared shortly."},
	domain.OrderStatusReady:     {"Order ready for pickup", "Your order %s is packed and waiting for a rider."},
	domain.OrderStatusPickedUp:  {"Order picked up", "A rider has collected your order %s."},
	domain.OrderStatusInTransit: {"Order on the way", "Your order %s is on its way to you."},
	domain.OrderStatusDelivered: {"Order delivered", "Your order %s has been delivered. Enjoy!"},
	domain.OrderStatusCancelled: {"Order cancelled", "Your order %s has been cancelled."},
}

type Handler struct {
	mailerURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHandler(mailerURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		mailerURL:  strings.TrimRight(mailerURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// Handle consumes one order.status_changed payload. Undecodable payloads and
// rejected recipients are discarded; mailer outages are returned for retry.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return messaging.Discard(fmt.Errorf("unmarshal order status changed event: %w", err))
	}

	logger := h.logger.With("order_id", event.OrderID, "status", event.To)

	msg, ok := messages[event.To]
	if !ok {
		logger.Debug("status not customer facing")
		return nil
	}
	if event.CustomerEmail == "" {
		logger.Info("skipping notification without customer email")
		return nil
	}

	err := h.send(ctx, sendRequest{
		To:      event.CustomerEmail,
		Subject: msg.subject + ": " + event.OrderID,
		Body:    fmt.Sprintf(msg.body, event.OrderID),
	})
	if err != nil {
		logger.Error("failed to notify customer", "error", err)
		return err
	}

	logger.Info("customer notified")
	return nil
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *Handler) send(ctx context.Context, body sendRequest) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.mailerURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return messaging.Discard(fmt.Errorf("mailer rejected message with status %d", resp.StatusCode))
	default:
		return fmt.Errorf("mailer returned status %d", resp.StatusCode)
	}
}
