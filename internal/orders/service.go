package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/lifecycle"
	"github.com/joao-fontenele/freshbasket/internal/stats"
	"github.com/joao-fontenele/freshbasket/internal/telemetry"
)

var tracer = otel.Tracer("orders")

// Publisher sends an event keyed by order id. *messaging.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// ProductCounter reports the catalog size for the admin overview.
type ProductCounter interface {
	CountProducts(ctx context.Context) (int, error)
}

type Service struct {
	store       Store
	created     Publisher
	changed     Publisher
	products    ProductCounter
	metrics     *telemetry.OrderMetrics
	logger      *slog.Logger
	now         func() time.Time
	deliveryFee int64
}

type Option func(*Service)

// WithPublishers sets where order.created and order.status_changed go.
// Either may be nil to skip that topic.
func WithPublishers(created, changed Publisher) Option {
	return func(s *Service) {
		s.created = created
		s.changed = changed
	}
}

func WithProductCounter(pc ProductCounter) Option {
	return func(s *Service) { s.products = pc }
}

func WithMetrics(m *telemetry.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithDeliveryFee(fee int64) Option {
	return func(s *Service) { s.deliveryFee = fee }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		deliveryFee: domain.DeliveryFee,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout limits keep order totals well inside int64 cents.
const (
	MaxOrderItems   = 100
	MaxItemQuantity = 1000
	MaxItemPrice    = int64(10_000_000)
)

type CheckoutRequest struct {
	Items           []domain.OrderItem     `json:"items"`
	DeliveryAddress domain.DeliveryAddress `json:"deliveryAddress"`
	CustomerPhone   string                 `json:"customerPhone,omitempty"`
}

func (req CheckoutRequest) validate() error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order has no items", domain.ErrInvalidOrder)
	}
	if len(req.Items) > MaxOrderItems {
		return fmt.Errorf("%w: order has more than %d items", domain.ErrInvalidOrder, MaxOrderItems)
	}
	for i, item := range req.Items {
		switch {
		case item.ProductID == "":
			return fmt.Errorf("%w: item %d has no product id", domain.ErrInvalidOrder, i)
		case item.Quantity < 1:
			return fmt.Errorf("%w: item %d quantity must be at least 1", domain.ErrInvalidOrder, i)
		case item.Price <= 0:
			return fmt.Errorf("%w: item %d price must be positive", domain.ErrInvalidOrder, i)
		case item.Quantity > MaxItemQuantity:
			return fmt.Errorf("%w: item %d quantity exceeds %d", domain.ErrInvalidOrder, i, MaxItemQuantity)
		case item.Price > MaxItemPrice:
			return fmt.Errorf("%w: item %d price exceeds %d", domain.ErrInvalidOrder, i, MaxItemPrice)
		}
	}
	a := req.DeliveryAddress
	if strings.TrimSpace(a.AddressLine1) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.PhoneNumber) == "" {
		return fmt.Errorf("%w: delivery address needs address line 1, city and phone number", domain.ErrInvalidOrder)
	}
	return nil
}

// Checkout places a pending order for the calling customer. Totals are
// computed here from the submitted line items. Stock is not reserved.
func (s *Service) Checkout(ctx context.Context, actor domain.Identity, req CheckoutRequest) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.Checkout")
	defer span.End()

	if actor.Role != domain.RoleCustomer {
		err := fmt.Errorf("%w: only customers can place orders", domain.ErrForbidden)
		fail(span, err)
		return nil, err
	}
	if err := req.validate(); err != nil {
		fail(span, err)
		return nil, err
	}

	items := make([]domain.OrderItem, len(req.Items))
	copy(items, req.Items)

	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.Price
	}

	phone := req.CustomerPhone
	if phone == "" {
		phone = req.DeliveryAddress.PhoneNumber
	}

	now := s.now()
	order := &domain.Order{
		CustomerID:      actor.ID,
		CustomerEmail:   actor.Email,
		CustomerPhone:   phone,
		Items:           items,
		Total:           total,
		DeliveryFee:     s.deliveryFee,
		GrandTotal:      total + s.deliveryFee,
		Status:          domain.OrderStatusPending,
		DeliveryAddress: req.DeliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Insert(ctx, order); err != nil {
		fail(span, err)
		s.logger.Error("failed to create order", "error", err, "customer_id", actor.ID)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	s.metrics.RecordCheckout(ctx)

	s.publish(ctx, s.created, order.ID, domain.OrderCreatedEvent{
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		CustomerEmail: order.CustomerEmail,
		Items:         order.Items,
		GrandTotal:    order.GrandTotal,
		Timestamp:     order.CreatedAt,
	})

	s.logger.Info("order created", "order_id", order.ID, "customer_id", order.CustomerID, "grand_total", order.GrandTotal)
	return order, nil
}

// Get returns one order if actor may see it.
func (s *Service) Get(ctx context.Context, id string, actor domain.Identity) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.store.FetchByID(ctx, id)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	if !canView(*order, actor) {
		err := fmt.Errorf("%w: order belongs to someone else", domain.ErrForbidden)
		fail(span, err)
		return nil, err
	}
	return order, nil
}

func canView(o domain.Order, actor domain.Identity) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCustomer:
		return o.CustomerID == actor.ID || (actor.Email != "" && strings.EqualFold(o.CustomerEmail, actor.Email))
	case domain.RoleVendor:
		return !o.VendorTagged() || o.HasVendor(actor.ID)
	case domain.RoleRider:
		return o.RiderID == actor.ID || (o.Status == domain.OrderStatusReady && o.RiderID == "")
	}
	return false
}

// List returns every order matching filter, newest first. Admin only.
func (s *Service) List(ctx context.Context, actor domain.Identity, filter stats.Filter) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.List")
	defer span.End()

	if actor.Role != domain.RoleAdmin {
		err := fmt.Errorf("%w: only admins can list all orders", domain.ErrForbidden)
		fail(span, err)
		return nil, err
	}

	all, err := s.store.FetchAll(ctx)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	return stats.NewestFirst(stats.FilterOrders(all, filter)), nil
}

// Transition moves an order to target on behalf of actor. The write is
// conditional on the status read here, so a concurrent change surfaces as
// ErrStaleOrder or ErrAlreadyClaimed instead of being overwritten.
func (s *Service) Transition(ctx context.Context, id string, target domain.OrderStatus, actor domain.Identity) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.Transition", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.target_status", string(target)),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer span.End()

	current, err := s.store.FetchByID(ctx, id)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.status", string(current.Status)))

	updated, patch, err := lifecycle.Transition(*current, target, actor, s.now())
	if err == nil {
		err = s.store.Update(ctx, id, patch)
	}
	s.metrics.RecordTransition(ctx, string(current.Status), string(target), outcome(err))

	if err != nil {
		fail(span, err)
		if errors.Is(err, domain.ErrStoreUnavailable) {
			s.logger.Error("failed to update order status", "error", err, "order_id", id)
		} else {
			s.logger.Warn("order transition rejected", "error", err, "order_id", id,
				"from", current.Status, "to", target, "actor_id", actor.ID, "role", actor.Role)
		}
		return nil, err
	}

	s.publish(ctx, s.changed, id, domain.OrderStatusChangedEvent{
		OrderID:       id,
		CustomerID:    updated.CustomerID,
		CustomerEmail: updated.CustomerEmail,
		From:          current.Status,
		To:            updated.Status,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		RiderID:       updated.RiderID,
		Timestamp:     updated.UpdatedAt,
	})

	s.logger.Info("order status updated", "order_id", id, "from", current.Status, "to", updated.Status, "actor_id", actor.ID)
	return &updated, nil
}

// Delete removes an order outright. Admin only; normal flows cancel instead.
func (s *Service) Delete(ctx context.Context, id string, actor domain.Identity) error {
	ctx, span := tracer.Start(ctx, "orders.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if actor.Role != domain.RoleAdmin {
		err := fmt.Errorf("%w: only admins can delete orders", domain.ErrForbidden)
		fail(span, err)
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		fail(span, err)
		return err
	}
	s.logger.Info("order deleted", "order_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) publish(ctx context.Context, p Publisher, key string, event any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, event); err != nil {
		s.logger.Error("failed to publish order event", "error", err, "order_id", key)
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, domain.ErrStaleOrder):
		return "stale"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
