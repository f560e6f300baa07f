package quotes

import "time"

// LineRequest represents one line in a create or update request.
type LineRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Unit        string  `json:"unit" validate:"required,max=20"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// CreateRequest represents a request to create a quote.
type CreateRequest struct {
	ClientID        int64         `json:"client_id" validate:"required,gt=0"`
	QuoteDate       time.Time     `json:"quote_date" validate:"required"`
	ValidUntil      *time.Time    `json:"valid_until,omitempty"`
	DiscountPercent float64       `json:"discount_percent" validate:"gte=0,lte=100"`
	Notes           *string       `json:"notes,omitempty"`
	Lines           []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateRequest represents a request to update a DRAFT quote. When Lines is
// present the full line set is replaced and totals recomputed.
type UpdateRequest struct {
	QuoteDate       *time.Time     `json:"quote_date,omitempty"`
	ValidUntil      *time.Time     `json:"valid_until,omitempty"`
	DiscountPercent *float64       `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes           *string        `json:"notes,omitempty"`
	Lines           *[]LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

// CancelRequest represents a request to cancel a quote.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=500"`
}

// ConvertRequest carries the order fields not present on the quote.
type ConvertRequest struct {
	OrderDate          *time.Time `json:"order_date,omitempty"`
	WantedDeliveryDate *time.Time `json:"wanted_delivery_date,omitempty"`
}

// ListRequest represents filters for listing quotes.
type ListRequest struct {
	ClientID *int64
	Status   *Status
	Limit    int
	Offset   int
}
