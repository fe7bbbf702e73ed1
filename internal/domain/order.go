package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in pipeline order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusPickedUp,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

const (
	// DeliveryFee is charged on every checkout and assumed for rider earnings
	// when an order does not carry its own fee.
	DeliveryFee int64 = 200
	// LegacyDeliveryFee was charged by an older checkout path. Kept for reading
	// historical records only.
	LegacyDeliveryFee int64 = 50
)

type OrderItem struct {
	ProductID          string `json:"productId"`
	Name               string `json:"name"`
	Price              int64  `json:"price"`
	Quantity           int    `json:"quantity"`
	VendorID           string `json:"vendorId,omitempty"`
	VendorEmail        string `json:"vendorEmail,omitempty"`
	VendorBusinessName string `json:"vendorBusinessName,omitempty"`
}

type DeliveryAddress struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode,omitempty"`
	PhoneNumber  string `json:"phoneNumber"`
}

type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customerId"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone,omitempty"`
	Items           []OrderItem     `json:"items"`
	Total           int64           `json:"total"`
	DeliveryFee     int64           `json:"deliveryFee,omitempty"`
	GrandTotal      int64           `json:"grandTotal,omitempty"`
	Status          OrderStatus     `json:"status"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	RiderID         string          `json:"riderId,omitempty"`
	RiderEmail      string          `json:"riderEmail,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt,omitzero"`
	MadeAvailableAt time.Time       `json:"madeAvailableAt,omitzero"`
}

// Amount is what the customer pays, falling back to the item total for
// records written without a grand total.
func (o Order) Amount() int64 {
	if o.GrandTotal != 0 {
		return o.GrandTotal
	}
	return o.Total
}

// HasVendor reports whether any line item belongs to vendorID.
func (o Order) HasVendor(vendorID string) bool {
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// VendorTagged reports whether any line item carries a vendor id.
func (o Order) VendorTagged() bool {
	for _, item := range o.Items {
		if item.VendorID != "" {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with o.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	return c
}

// OrderPatch is a merge patch: nil fields are left untouched.
type OrderPatch struct {
	Status          *OrderStatus
	UpdatedAt       *time.Time
	MadeAvailableAt *time.Time
	RiderID         *string
	RiderEmail      *string

	If Condition
}

// Condition guards a patch. The store applies the patch only if the stored
// order still satisfies it.
type Condition struct {
	// Status, when set, must equal the stored status.
	Status OrderStatus
	// Unclaimed requires the stored order to have no rider bound.
	Unclaimed bool
}

// Apply returns a copy of o with the patch fields written.
func (p OrderPatch) Apply(o Order) Order {
	c := o.Clone()
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.UpdatedAt != nil {
		c.UpdatedAt = *p.UpdatedAt
	}
	if p.MadeAvailableAt != nil {
		c.MadeAvailableAt = *p.MadeAvailableAt
	}
	if p.RiderID != nil {
		c.RiderID = *p.RiderID
	}
	if p.RiderEmail != nil {
		c.RiderEmail = *p.RiderEmail
	}
	return c
}
