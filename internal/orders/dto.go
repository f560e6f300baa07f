package orders

import "time"

// LineRequest represents one line in a create or update request.
type LineRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Unit        string  `json:"unit" validate:"required,max=20"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// CreateRequest represents a request to create a purchase order.
type CreateRequest struct {
	ClientID           int64         `json:"client_id" validate:"required,gt=0"`
	OrderDate          time.Time     `json:"order_date" validate:"required"`
	WantedDeliveryDate *time.Time    `json:"wanted_delivery_date,omitempty"`
	DiscountPercent    float64       `json:"discount_percent" validate:"gte=0,lte=100"`
	Notes              *string       `json:"notes,omitempty"`
	Lines              []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateRequest represents a request to update a DRAFT order. When Lines is
// present the full line set is replaced and totals recomputed.
type UpdateRequest struct {
	OrderDate          *time.Time     `json:"order_date,omitempty"`
	WantedDeliveryDate *time.Time     `json:"wanted_delivery_date,omitempty"`
	DiscountPercent    *float64       `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes              *string        `json:"notes,omitempty"`
	Lines              *[]LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

// CancelRequest represents a request to cancel an order.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=500"`
}

// ListRequest represents filters for listing orders.
type ListRequest struct {
	ClientID *int64
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
