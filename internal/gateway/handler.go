// Package gateway fronts the orders and catalog services behind one origin.
package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const catalogPrefix = "/catalog"

// copiedHeaders are passed back from the upstream response.
var copiedHeaders = []string{"Content-Type", "Location"}

type Handler struct {
	orders  *ServiceProxy
	catalog *ServiceProxy
	logger  *slog.Logger
}

func NewHandler(orders, catalog *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		orders:  orders,
		catalog: catalog,
		logger:  logger,
	}
}

// Register mounts the proxied routes on mux. wrap decorates each handler.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(f http.HandlerFunc) http.HandlerFunc { return f }
	}
	mux.HandleFunc("GET /orders", wrap(h.HandleOrders))
	mux.HandleFunc("POST /orders", wrap(h.HandleOrders))
	mux.HandleFunc("GET /orders/{id}", wrap(h.HandleOrders))
	mux.HandleFunc("PATCH /orders/{id}/status", wrap(h.HandleOrders))
	mux.HandleFunc("DELETE /orders/{id}", wrap(h.HandleOrders))
	mux.HandleFunc("GET /dashboards/{role}", wrap(h.HandleOrders))
	mux.HandleFunc("GET /catalog/products", wrap(h.HandleCatalog))
	mux.HandleFunc("POST /catalog/products", wrap(h.HandleCatalog))
	mux.HandleFunc("GET /catalog/products/{id}", wrap(h.HandleCatalog))
	mux.HandleFunc("PATCH /catalog/products/{id}", wrap(h.HandleCatalog))
	mux.HandleFunc("PUT /catalog/products/{id}/stock", wrap(h.HandleCatalog))
	mux.HandleFunc("DELETE /catalog/products/{id}", wrap(h.HandleCatalog))
}

// HandleOrders serves /orders and /dashboards paths unchanged from the
// orders service.
func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.orders, r.URL.Path)
}

// HandleCatalog maps /catalog/products... onto the catalog's /products...
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.catalog, strings.TrimPrefix(r.URL.Path, catalogPrefix))
}

func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, upstream *ServiceProxy, path string) {
	resp, err := upstream.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for _, name := range copiedHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
