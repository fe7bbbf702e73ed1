package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/identity"
)

type Handler struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger, now: time.Now}
}

// Register mounts the product routes on mux. wrap decorates each handler.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(f http.HandlerFunc) http.HandlerFunc { return f }
	}
	mux.HandleFunc("GET /products", wrap(h.HandleList))
	mux.HandleFunc("GET /products/count", wrap(h.HandleCount))
	mux.HandleFunc("GET /products/categories", wrap(h.HandleCategories))
	mux.HandleFunc("GET /products/{id}", wrap(h.HandleGet))
	mux.HandleFunc("POST /products", wrap(h.HandleCreate))
	mux.HandleFunc("PATCH /products/{id}", wrap(h.HandleUpdate))
	mux.HandleFunc("PUT /products/{id}/stock", wrap(h.HandleSetStock))
	mux.HandleFunc("DELETE /products/{id}", wrap(h.HandleDelete))
}

// queryFrom reads the listing filters. "All" is accepted as no filter for
// category and subcategory.
func queryFrom(r *http.Request) Query {
	v := r.URL.Query()
	filter := func(key string) string {
		s := strings.TrimSpace(v.Get(key))
		if strings.EqualFold(s, "all") {
			return ""
		}
		return s
	}
	return Query{
		VendorID:    strings.TrimSpace(v.Get("vendorId")),
		Category:    filter("category"),
		Subcategory: filter("subcategory"),
		Search:      strings.TrimSpace(v.Get("q")),
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := queryFrom(r)
	products, err := h.store.List(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("products listed", "count", len(products), "category", q.Category, "search", q.Search)
	h.writeJSON(w, http.StatusOK, products)
}

// HandleCategories lists categories and their subcategories. vendorId narrows
// the tree to one vendor's products.
func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.List(r.Context(), Query{VendorID: strings.TrimSpace(r.URL.Query().Get("vendorId"))})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, Categories(products))
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Count(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.FromRequest(r)
	if !ok {
		h.writeError(w, domain.ErrUnauthenticated)
		return
	}
	if actor.Role != domain.RoleVendor && actor.Role != domain.RoleAdmin {
		h.writeError(w, domain.ErrForbidden)
		return
	}

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.writeError(w, domain.ErrInvalidProduct)
		return
	}
	if err := product.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	product.ID = ""
	product.CreatedAt = h.now().UTC()
	product.UpdatedAt = time.Time{}
	if actor.Role == domain.RoleVendor {
		product.VendorID = actor.ID
	}

	if err := h.store.Create(r.Context(), &product); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("product created", "product_id", product.ID, "vendor_id", product.VendorID)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, domain.ErrInvalidProduct)
		return
	}
	h.modify(w, r, patch)
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

func (h *Handler) HandleSetStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stock == nil {
		h.writeError(w, domain.ErrInvalidProduct)
		return
	}
	h.modify(w, r, domain.ProductPatch{Stock: req.Stock})
}

func (h *Handler) modify(w http.ResponseWriter, r *http.Request, patch domain.ProductPatch) {
	product, ok := h.owned(w, r)
	if !ok {
		return
	}

	updated := patch.Apply(*product)
	if err := updated.Validate(); err != nil {
		h.writeError(w, err)
		return
	}
	updated.UpdatedAt = h.now().UTC()

	if err := h.store.Save(r.Context(), updated); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("product updated", "product_id", updated.ID, "stock", updated.Stock)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	product, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), product.ID); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("product deleted", "product_id", product.ID)
	w.WriteHeader(http.StatusNoContent)
}

// owned loads the product named in the path and checks the caller may modify
// it. Admins may modify any product, vendors only their own.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	actor, ok := identity.FromRequest(r)
	if !ok {
		h.writeError(w, domain.ErrUnauthenticated)
		return nil, false
	}

	product, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}

	switch {
	case actor.Role == domain.RoleAdmin:
	case actor.Role == domain.RoleVendor && product.VendorID == actor.ID:
	default:
		h.writeError(w, domain.ErrForbidden)
		return nil, false
	}
	return product, true
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidProduct):
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
	if status >= http.StatusInternalServerError {
		h.logger.Error("catalog request failed", "error", err)
		message = http.StatusText(status)
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
