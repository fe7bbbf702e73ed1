// Package lifecycle holds the order status state machine: which status may
// follow which, and which role may request each step.
package lifecycle

import (
	"fmt"
	"slices"
	"time"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

type edge struct {
	from, to domain.OrderStatus
}

type rule struct {
	roles []domain.Role
	// boundRider restricts riders to the one already bound to the order.
	boundRider bool
}

var rules = map[edge]rule{
	{domain.OrderStatusPending, domain.OrderStatusConfirmed}:   {roles: []domain.Role{domain.RoleVendor, domain.RoleAdmin}},
	{domain.OrderStatusPending, domain.OrderStatusCancelled}:   {roles: []domain.Role{domain.RoleVendor, domain.RoleAdmin}},
	{domain.OrderStatusConfirmed, domain.OrderStatusReady}:     {roles: []domain.Role{domain.RoleAdmin}},
	{domain.OrderStatusConfirmed, domain.OrderStatusPreparing}: {roles: []domain.Role{domain.RoleVendor}},
	{domain.OrderStatusConfirmed, domain.OrderStatusCancelled}: {roles: []domain.Role{domain.RoleVendor, domain.RoleAdmin}},
	{domain.OrderStatusPreparing, domain.OrderStatusReady}:     {roles: []domain.Role{domain.RoleVendor}},
	{domain.OrderStatusReady, domain.OrderStatusPickedUp}:      {roles: []domain.Role{domain.RoleRider}},
	{domain.OrderStatusReady, domain.OrderStatusCancelled}:     {roles: []domain.Role{domain.RoleAdmin}},
	{domain.OrderStatusPickedUp, domain.OrderStatusInTransit}:  {roles: []domain.Role{domain.RoleRider}, boundRider: true},
	{domain.OrderStatusPickedUp, domain.OrderStatusDelivered}:  {roles: []domain.Role{domain.RoleAdmin, domain.RoleRider}, boundRider: true},
	{domain.OrderStatusInTransit, domain.OrderStatusDelivered}: {roles: []domain.Role{domain.RoleAdmin, domain.RoleRider}, boundRider: true},
}

// lookup resolves the rule for a step, including the admin override that
// delivers any open order.
func lookup(from, to domain.OrderStatus) (rule, bool) {
	if r, ok := rules[edge{from, to}]; ok {
		return r, true
	}
	if to == domain.OrderStatusDelivered && from.Valid() && !from.IsTerminal() {
		return rule{roles: []domain.Role{domain.RoleAdmin}}, true
	}
	return rule{}, false
}

// participates reports whether role appears anywhere in the pipeline.
func participates(role domain.Role) bool {
	if role == domain.RoleAdmin {
		return true
	}
	for _, r := range rules {
		if slices.Contains(r.roles, role) {
			return true
		}
	}
	return false
}

// Reachable reports whether to directly follows from for some role.
func Reachable(from, to domain.OrderStatus) bool {
	_, ok := lookup(from, to)
	return ok
}

// Transition validates a status change requested by actor and returns the
// updated order together with the conditional patch the store must apply.
// The input order is not modified.
func Transition(order domain.Order, target domain.OrderStatus, actor domain.Identity, now time.Time) (domain.Order, domain.OrderPatch, error) {
	from := order.Status

	if !participates(actor.Role) {
		return domain.Order{}, domain.OrderPatch{}, fmt.Errorf("%w: %q cannot change order status", domain.ErrForbidden, actor.Role)
	}
	if actor.ID == "" {
		return domain.Order{}, domain.OrderPatch{}, fmt.Errorf("%w: actor has no id", domain.ErrForbidden)
	}

	if from.IsTerminal() {
		return domain.Order{}, domain.OrderPatch{}, fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, from)
	}

	if from == domain.OrderStatusReady && target == domain.OrderStatusPickedUp && order.RiderID != "" && order.RiderID != actor.ID {
		return domain.Order{}, domain.OrderPatch{}, domain.ErrAlreadyClaimed
	}

	r, ok := lookup(from, target)
	if !ok {
		return domain.Order{}, domain.OrderPatch{}, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, target)
	}

	if err := authorize(order, r, actor); err != nil {
		return domain.Order{}, domain.OrderPatch{}, err
	}

	patch := domain.OrderPatch{
		Status:    &target,
		UpdatedAt: &now,
		If:        domain.Condition{Status: from},
	}
	switch target {
	case domain.OrderStatusReady:
		patch.MadeAvailableAt = &now
	case domain.OrderStatusPickedUp:
		riderID, riderEmail := actor.ID, actor.Email
		patch.RiderID = &riderID
		patch.RiderEmail = &riderEmail
		patch.If.Unclaimed = true
	}

	return patch.Apply(order), patch, nil
}

func authorize(order domain.Order, r rule, actor domain.Identity) error {
	if !slices.Contains(r.roles, actor.Role) {
		return fmt.Errorf("%w: %s may not move order to this status", domain.ErrForbidden, actor.Role)
	}

	switch actor.Role {
	case domain.RoleRider:
		if r.boundRider && order.RiderID != actor.ID {
			return fmt.Errorf("%w: order is assigned to another rider", domain.ErrForbidden)
		}
	case domain.RoleVendor:
		if order.VendorTagged() && !order.HasVendor(actor.ID) {
			return fmt.Errorf("%w: order has no items from this vendor", domain.ErrForbidden)
		}
	}
	return nil
}

// Allowed lists the statuses actor may move order to right now, in pipeline
// order.
func Allowed(order domain.Order, actor domain.Identity) []domain.OrderStatus {
	var out []domain.OrderStatus
	for _, target := range domain.OrderStatuses {
		if _, _, err := Transition(order, target, actor, time.Time{}); err == nil {
			out = append(out, target)
		}
	}
	return out
}

var progressSteps = []domain.OrderStatus{
	domain.OrderStatusConfirmed,
	domain.OrderStatusReady,
	domain.OrderStatusPickedUp,
	domain.OrderStatusInTransit,
	domain.OrderStatusDelivered,
}

// Progress is the percentage shown on the customer's delivery tracker.
// Statuses outside the tracked steps report 0.
func Progress(status domain.OrderStatus) int {
	i := slices.Index(progressSteps, status)
	if i < 0 {
		return 0
	}
	return (i + 1) * 100 / len(progressSteps)
}
