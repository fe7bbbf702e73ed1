package stats

import (
	"time"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

type AdminOverview struct {
	TotalOrders      int                        `json:"totalOrders"`
	TotalProducts    int                        `json:"totalProducts"`
	AwaitingDispatch int                        `json:"awaitingDispatch"`
	Completed        int                        `json:"completed"`
	ActiveRiders     int                        `json:"activeRiders"`
	GrossRevenue     int64                      `json:"grossRevenue"`
	ByStatus         map[domain.OrderStatus]int `json:"byStatus"`
}

// Admin summarizes the whole platform. Confirmed orders are the ones waiting
// for an admin to make them available to riders.
func Admin(orders []domain.Order, productCount int) AdminOverview {
	counts := CountByStatus(orders)
	return AdminOverview{
		TotalOrders:      len(orders),
		TotalProducts:    productCount,
		AwaitingDispatch: counts[domain.OrderStatusConfirmed],
		Completed:        counts[domain.OrderStatusDelivered],
		ActiveRiders:     ActiveRiderCount(orders),
		GrossRevenue:     GrossRevenue(orders),
		ByStatus:         counts,
	}
}

type VendorOverview struct {
	RealizedRevenue   int64 `json:"realizedRevenue"`
	Pending           int   `json:"pending"`
	Completed         int   `json:"completed"`
	AverageOrderValue int64 `json:"averageOrderValue"`
}

// Vendor summarizes orders already scoped to one vendor.
func Vendor(orders []domain.Order) VendorOverview {
	counts := CountByStatus(orders)
	v := VendorOverview{
		RealizedRevenue: RealizedRevenue(orders),
		Pending:         counts[domain.OrderStatusPending],
		Completed:       counts[domain.OrderStatusDelivered],
	}
	if v.Completed > 0 {
		v.AverageOrderValue = v.RealizedRevenue / int64(v.Completed)
	}
	return v
}

type CustomerOverview struct {
	Delivered  int   `json:"delivered"`
	Active     int   `json:"active"`
	TotalSpent int64 `json:"totalSpent"`
}

// Customer summarizes orders already scoped to one customer.
func Customer(orders []domain.Order) CustomerOverview {
	var c CustomerOverview
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusDelivered:
			c.Delivered++
		case domain.OrderStatusConfirmed, domain.OrderStatusPreparing, domain.OrderStatusReady,
			domain.OrderStatusPickedUp, domain.OrderStatusInTransit:
			c.Active++
		}
	}
	c.TotalSpent = GrossRevenue(orders)
	return c
}

type RiderOverview struct {
	Available int      `json:"available"`
	Active    int      `json:"active"`
	Delivered int      `json:"delivered"`
	Earnings  Earnings `json:"earnings"`
}

// Rider summarizes the pickup board and the rider's own deliveries.
func Rider(orders []domain.Order, riderID string, now time.Time) RiderOverview {
	r := RiderOverview{
		Available: len(AvailableForPickup(orders)),
		Earnings:  RiderEarnings(orders, riderID, now),
	}
	for _, o := range RiderOrders(orders, riderID) {
		switch o.Status {
		case domain.OrderStatusPickedUp, domain.OrderStatusInTransit:
			r.Active++
		case domain.OrderStatusDelivered:
			r.Delivered++
		}
	}
	return r
}
