// Package stats derives dashboard figures from an order snapshot.
//
// Every function is a pure full scan over the slice it is given: nothing is
// cached between calls and inputs are never modified. Dashboards call these
// after each fetch, so cost is O(n) in the number of orders per view.
package stats

import (
	"slices"
	"strings"
	"time"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

func CountByStatus(orders []domain.Order) map[domain.OrderStatus]int {
	counts := make(map[domain.OrderStatus]int)
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

// RealizedRevenue sums what customers paid for delivered orders only.
func RealizedRevenue(orders []domain.Order) int64 {
	var sum int64
	for _, o := range orders {
		if o.Status == domain.OrderStatusDelivered {
			sum += o.Amount()
		}
	}
	return sum
}

// GrossRevenue sums every order regardless of status.
func GrossRevenue(orders []domain.Order) int64 {
	var sum int64
	for _, o := range orders {
		sum += o.Amount()
	}
	return sum
}

// ActiveRiderCount counts distinct riders carrying an order right now.
func ActiveRiderCount(orders []domain.Order) int {
	riders := make(map[string]struct{})
	for _, o := range orders {
		if o.RiderID == "" {
			continue
		}
		if o.Status == domain.OrderStatusPickedUp || o.Status == domain.OrderStatusInTransit {
			riders[o.RiderID] = struct{}{}
		}
	}
	return len(riders)
}

type Earnings struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Total int64 `json:"total"`
}

// RiderEarnings sums delivery fees of the rider's delivered orders. Today is
// the calendar day of now in now's location; Week is the trailing 7×24h.
// Orders with no recorded update time only count towards Total.
func RiderEarnings(orders []domain.Order, riderID string, now time.Time) Earnings {
	var e Earnings
	y, m, d := now.Date()
	weekStart := now.Add(-7 * 24 * time.Hour)

	for _, o := range orders {
		if o.Status != domain.OrderStatusDelivered || o.RiderID != riderID {
			continue
		}
		fee := o.DeliveryFee
		if fee == 0 {
			fee = domain.DeliveryFee
		}
		e.Total += fee

		if o.UpdatedAt.IsZero() {
			continue
		}
		at := o.UpdatedAt.In(now.Location())
		if ay, am, ad := at.Date(); ay == y && am == m && ad == d {
			e.Today += fee
		}
		if !at.Before(weekStart) {
			e.Week += fee
		}
	}
	return e
}

// VendorOrders keeps orders with at least one line item from vendorID.
func VendorOrders(orders []domain.Order, vendorID string) []domain.Order {
	return keep(orders, func(o domain.Order) bool { return o.HasVendor(vendorID) })
}

// RiderOrders keeps orders bound to riderID.
func RiderOrders(orders []domain.Order, riderID string) []domain.Order {
	return keep(orders, func(o domain.Order) bool { return o.RiderID == riderID })
}

// AvailableForPickup keeps ready orders no rider has claimed yet.
func AvailableForPickup(orders []domain.Order) []domain.Order {
	return keep(orders, func(o domain.Order) bool {
		return o.Status == domain.OrderStatusReady && o.RiderID == ""
	})
}

// CustomerOrders keeps orders placed by the customer, matched by id or email.
func CustomerOrders(orders []domain.Order, customerID, email string) []domain.Order {
	return keep(orders, func(o domain.Order) bool {
		return (customerID != "" && o.CustomerID == customerID) ||
			(email != "" && strings.EqualFold(o.CustomerEmail, email))
	})
}

// Filter narrows a dashboard listing. An empty Status or "all" matches every
// status.
type Filter struct {
	Status     string
	SearchTerm string
}

// StatusAll is the dashboard value for "no status filter".
const StatusAll = "all"

// FilterOrders applies the status match and the case-insensitive search over
// order id, customer email and customer phone.
func FilterOrders(orders []domain.Order, f Filter) []domain.Order {
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	return keep(orders, func(o domain.Order) bool {
		if f.Status != "" && f.Status != StatusAll && string(o.Status) != f.Status {
			return false
		}
		if term == "" {
			return true
		}
		return strings.Contains(strings.ToLower(o.ID), term) ||
			strings.Contains(strings.ToLower(o.CustomerEmail), term) ||
			strings.Contains(strings.ToLower(o.CustomerPhone), term)
	})
}

// NewestFirst returns a copy sorted by creation time, most recent first.
func NewestFirst(orders []domain.Order) []domain.Order {
	out := slices.Clone(orders)
	slices.SortStableFunc(out, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func keep(orders []domain.Order, match func(domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range orders {
		if match(o) {
			out = append(out, o)
		}
	}
	return out
}
