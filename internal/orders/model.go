// Package orders provides purchase order entity logic.
package orders

import "time"

// Status represents the lifecycle of a purchase order.
type Status string

const (
	StatusDraft    Status = "DRAFT"    // Initial creation, can be edited
	StatusSent     Status = "SENT"     // Sent to the client
	StatusApproved Status = "APPROVED" // Approved, deliveries may be created
	StatusCanceled Status = "CANCELED" // Canceled order
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusCanceled:
		return true
	default:
		return false
	}
}

// CanEdit checks if the order can be edited in this status.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanSend checks if the order can be sent.
func (s Status) CanSend() bool {
	return s == StatusDraft
}

// CanApprove checks if the order can be approved.
func (s Status) CanApprove() bool {
	return s == StatusSent
}

// CanCancel checks if the order can be canceled. APPROVED and CANCELED are
// terminal.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusSent
}

// Order represents a client's confirmed commitment to buy specific line items.
type Order struct {
	ID                 int64      `json:"id" db:"id"`
	Number             string     `json:"number" db:"number"`
	ClientID           int64      `json:"client_id" db:"client_id"`
	ClientName         string     `json:"client_name" db:"client_name"`
	OrderDate          time.Time  `json:"order_date" db:"order_date"`
	WantedDeliveryDate *time.Time `json:"wanted_delivery_date,omitempty" db:"wanted_delivery_date"`
	Status             Status     `json:"status" db:"status"`
	DiscountPercent    float64    `json:"discount_percent" db:"discount_percent"`
	GrossTotal         float64    `json:"gross_total" db:"gross_total"`
	DiscountAmount     float64    `json:"discount_amount" db:"discount_amount"`
	NetTotal           float64    `json:"net_total" db:"net_total"`
	Notes              *string    `json:"notes,omitempty" db:"notes"`
	SentAt             *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty" db:"canceled_at"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	Lines              []Line     `json:"lines,omitempty" db:"-"`
}

// Line is an item ordered at a quantity and price. The line number is the
// stable reference deliveries trace back to; it never changes once any
// delivery references it (the order is no longer DRAFT by then).
type Line struct {
	ID          int64   `json:"id" db:"id"`
	OrderID     int64   `json:"order_id" db:"order_id"`
	LineNumber  int     `json:"line_number" db:"line_number"`
	Description string  `json:"description" db:"description"`
	Unit        string  `json:"unit" db:"unit"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	LineTotal   float64 `json:"line_total" db:"line_total"`
}
