package orders

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/lifecycle"
	"github.com/joao-fontenele/freshbasket/internal/stats"
)

// OrderView is an order as a dashboard shows it: with the statuses the viewer
// may move it to and the delivery progress percentage.
type OrderView struct {
	domain.Order
	Actions  []domain.OrderStatus `json:"actions"`
	Progress int                  `json:"progress"`
}

func views(orders []domain.Order, actor domain.Identity) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		actions := lifecycle.Allowed(o, actor)
		if actions == nil {
			actions = []domain.OrderStatus{}
		}
		out = append(out, OrderView{Order: o, Actions: actions, Progress: lifecycle.Progress(o.Status)})
	}
	return out
}

type AdminDashboard struct {
	Overview stats.AdminOverview `json:"overview"`
	Orders   []OrderView         `json:"orders"`
}

type VendorDashboard struct {
	Overview stats.VendorOverview `json:"overview"`
	Orders   []OrderView          `json:"orders"`
}

type RiderDashboard struct {
	Overview  stats.RiderOverview `json:"overview"`
	Available []OrderView         `json:"available"`
	Active    []OrderView         `json:"active"`
	Delivered []OrderView         `json:"delivered"`
}

type CustomerDashboard struct {
	Overview stats.CustomerOverview `json:"overview"`
	Orders   []OrderView            `json:"orders"`
}

func (s *Service) snapshot(ctx context.Context, span trace.Span, actor domain.Identity, role domain.Role) ([]domain.Order, error) {
	if actor.Role != role {
		err := fmt.Errorf("%w: %s dashboard needs the %s role", domain.ErrForbidden, role, role)
		fail(span, err)
		return nil, err
	}
	all, err := s.store.FetchAll(ctx)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	return all, nil
}

// AdminDashboard summarizes the whole platform. The overview always covers
// every order; filter narrows only the listing.
func (s *Service) AdminDashboard(ctx context.Context, actor domain.Identity, filter stats.Filter) (*AdminDashboard, error) {
	ctx, span := tracer.Start(ctx, "orders.AdminDashboard")
	defer span.End()

	all, err := s.snapshot(ctx, span, actor, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	var productCount int
	if s.products != nil {
		productCount, err = s.products.CountProducts(ctx)
		if err != nil {
			s.logger.Warn("failed to count products", "error", err)
			productCount = 0
		}
	}

	return &AdminDashboard{
		Overview: stats.Admin(all, productCount),
		Orders:   views(stats.NewestFirst(stats.FilterOrders(all, filter)), actor),
	}, nil
}

// VendorDashboard covers orders holding at least one of the vendor's items.
func (s *Service) VendorDashboard(ctx context.Context, actor domain.Identity, filter stats.Filter) (*VendorDashboard, error) {
	ctx, span := tracer.Start(ctx, "orders.VendorDashboard")
	defer span.End()

	all, err := s.snapshot(ctx, span, actor, domain.RoleVendor)
	if err != nil {
		return nil, err
	}

	mine := stats.VendorOrders(all, actor.ID)
	return &VendorDashboard{
		Overview: stats.Vendor(mine),
		Orders:   views(stats.NewestFirst(stats.FilterOrders(mine, filter)), actor),
	}, nil
}

func (s *Service) RiderDashboard(ctx context.Context, actor domain.Identity) (*RiderDashboard, error) {
	ctx, span := tracer.Start(ctx, "orders.RiderDashboard")
	defer span.End()

	all, err := s.snapshot(ctx, span, actor, domain.RoleRider)
	if err != nil {
		return nil, err
	}

	var active, delivered []domain.Order
	for _, o := range stats.RiderOrders(all, actor.ID) {
		switch o.Status {
		case domain.OrderStatusPickedUp, domain.OrderStatusInTransit:
			active = append(active, o)
		case domain.OrderStatusDelivered:
			delivered = append(delivered, o)
		}
	}

	return &RiderDashboard{
		Overview:  stats.Rider(all, actor.ID, s.now()),
		Available: views(stats.NewestFirst(stats.AvailableForPickup(all)), actor),
		Active:    views(stats.NewestFirst(active), actor),
		Delivered: views(stats.NewestFirst(delivered), actor),
	}, nil
}

func (s *Service) CustomerDashboard(ctx context.Context, actor domain.Identity) (*CustomerDashboard, error) {
	ctx, span := tracer.Start(ctx, "orders.CustomerDashboard")
	defer span.End()

	all, err := s.snapshot(ctx, span, actor, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}

	mine := stats.CustomerOrders(all, actor.ID, actor.Email)
	return &CustomerDashboard{
		Overview: stats.Customer(mine),
		Orders:   views(stats.NewestFirst(mine), actor),
	}, nil
}
