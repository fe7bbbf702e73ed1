package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/identity"
	"github.com/joao-fontenele/freshbasket/internal/stats"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the order and dashboard routes on mux. wrap decorates each
// handler, e.g. with telemetry.WithHTTPRoute.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(f http.HandlerFunc) http.HandlerFunc { return f }
	}
	mux.HandleFunc("GET /orders", wrap(h.HandleList))
	mux.HandleFunc("POST /orders", wrap(h.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", wrap(h.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", wrap(h.HandleUpdateStatus))
	mux.HandleFunc("DELETE /orders/{id}", wrap(h.HandleDelete))
	mux.HandleFunc("GET /dashboards/admin", wrap(h.HandleAdminDashboard))
	mux.HandleFunc("GET /dashboards/vendor", wrap(h.HandleVendorDashboard))
	mux.HandleFunc("GET /dashboards/rider", wrap(h.HandleRiderDashboard))
	mux.HandleFunc("GET /dashboards/customer", wrap(h.HandleCustomerDashboard))
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := identity.FromRequest(r)
	if !ok {
		h.writeError(w, domain.ErrUnauthenticated)
	}
	return id, ok
}

func filterFrom(r *http.Request) stats.Filter {
	q := r.URL.Query()
	return stats.Filter{Status: q.Get("status"), SearchTerm: q.Get("q")}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.Checkout(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	order, err := h.svc.Get(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	orders, err := h.svc.List(r.Context(), actor, filterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.Transition(r.Context(), r.PathValue("id"), req.Status, actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), r.PathValue("id"), actor); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	d, err := h.svc.AdminDashboard(r.Context(), actor, filterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleVendorDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	d, err := h.svc.VendorDashboard(r.Context(), actor, filterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleRiderDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	d, err := h.svc.RiderDashboard(r.Context(), actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleCustomerDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	d, err := h.svc.CustomerDashboard(r.Context(), actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// httpStatus maps service errors onto response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrStaleOrder):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	message := err.Error()
	switch {
	case errors.Is(err, domain.ErrAlreadyClaimed):
		message = domain.ErrAlreadyClaimed.Error()
	case status == http.StatusServiceUnavailable:
		message = "service temporarily unavailable"
	case status >= http.StatusInternalServerError:
		h.logger.Error("unhandled error", "error", err)
		message = "internal server error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
