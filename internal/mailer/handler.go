// Package mailer is a stand-in outbound mail service. Deliveries are logged
// rather than sent.
package mailer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Handler struct {
	logger *slog.Logger
	sent   metric.Int64Counter
}

func NewHandler(logger *slog.Logger) (*Handler, error) {
	sent, err := otel.Meter("mailer").Int64Counter("freshbasket.mailer.messages",
		metric.WithDescription("Messages accepted for delivery"),
	)
	if err != nil {
		return nil, err
	}
	return &Handler{logger: logger, sent: sent}, nil
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.To))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid recipient")
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		h.writeError(w, http.StatusBadRequest, "missing subject")
		return
	}

	h.sent.Add(r.Context(), 1, metric.WithAttributes(attribute.String("domain", domainOf(addr.Address))))
	h.logger.Info("email sent", "to", addr.Address, "subject", req.Subject)

	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent"})
}

func domainOf(address string) string {
	_, d, _ := strings.Cut(address, "@")
	return strings.ToLower(d)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
