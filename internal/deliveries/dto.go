package deliveries

import "time"

// LineRequest selects an order line and the quantity moved in this delivery.
type LineRequest struct {
	LineNumber        int     `json:"line_number" validate:"required,gt=0"`
	DeliveredQuantity float64 `json:"delivered_quantity" validate:"required,gt=0"`
}

// CreateRequest represents a request to create a delivery from an order.
type CreateRequest struct {
	OrderID      int64         `json:"order_id" validate:"required,gt=0"`
	DeliveryDate time.Time     `json:"delivery_date" validate:"required"`
	Carrier      *string       `json:"carrier,omitempty" validate:"omitempty,max=200"`
	DeliveryTime *string       `json:"delivery_time,omitempty" validate:"omitempty,max=50"`
	Observation  *string       `json:"observation,omitempty" validate:"omitempty,max=1000"`
	Lines        []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateRequest represents a request to update a DRAFT delivery. When Lines is
// present the full line set is replaced and re-validated against the order's
// remaining quantities.
type UpdateRequest struct {
	DeliveryDate *time.Time     `json:"delivery_date,omitempty"`
	Carrier      *string        `json:"carrier,omitempty"`
	DeliveryTime *string        `json:"delivery_time,omitempty"`
	Observation  *string        `json:"observation,omitempty"`
	Lines        *[]LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

// ListRequest represents filters for listing deliveries.
type ListRequest struct {
	OrderID  *int64
	ClientID *int64
	Status   *Status
	Limit    int
	Offset   int
}
