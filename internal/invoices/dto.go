package invoices

import "time"

// CreateFromDeliveriesRequest builds one invoice from delivered, unbilled
// deliveries of a single client.
type CreateFromDeliveriesRequest struct {
	DeliveryIDs []int64    `json:"delivery_ids" validate:"required,min=1,dive,gt=0"`
	DateIssued  time.Time  `json:"date_issued" validate:"required"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	// DiscountPercent overrides the default inherited from the first delivery.
	DiscountPercent *float64 `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes           *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// LineRequest is a manually typed invoice line.
type LineRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Unit        string  `json:"unit" validate:"required,max=50"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"required,gte=0"`
}

// CreateManualRequest creates an invoice from typed lines, with no delivery
// sources.
type CreateManualRequest struct {
	ClientID        int64         `json:"client_id" validate:"required,gt=0"`
	DateIssued      time.Time     `json:"date_issued" validate:"required"`
	DueDate         *time.Time    `json:"due_date,omitempty"`
	DiscountPercent float64       `json:"discount_percent" validate:"gte=0,lte=100"`
	Notes           *string       `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Lines           []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateRequest patches a DRAFT invoice. Replacing lines drops their delivery
// traceability; totals are recomputed on every accepted patch.
type UpdateRequest struct {
	DateIssued      *time.Time     `json:"date_issued,omitempty"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	DiscountPercent *float64       `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes           *string        `json:"notes,omitempty"`
	Lines           *[]LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

// TransitionRequest targets a new lifecycle status.
type TransitionRequest struct {
	Status Status  `json:"status" validate:"required"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// CancelRequest carries the cancellation reason.
type CancelRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ListRequest filters invoice listings.
type ListRequest struct {
	ClientID *int64
	Status   *Status
	Limit    int
	Offset   int
}
