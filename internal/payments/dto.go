package payments

import "time"

// AddRequest applies a payment against an invoice.
type AddRequest struct {
	InvoiceID   int64     `json:"invoice_id" validate:"required,gt=0"`
	Amount      float64   `json:"amount" validate:"required"`
	Method      Method    `json:"method" validate:"required"`
	Reference   *string   `json:"reference,omitempty" validate:"omitempty,max=100"`
	PaymentDate time.Time `json:"payment_date" validate:"required"`
	Notes       *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ListRequest filters payment listings.
type ListRequest struct {
	InvoiceID *int64
	ClientID  *int64
	Limit     int
	Offset    int
}
