// Package quotes provides commercial quote entity logic, upstream of purchase
// orders.
package quotes

import "time"

// Status represents the lifecycle of a quote.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED" // Terminal, set when converted to an order
	StatusRejected Status = "REJECTED" // Terminal
	StatusCanceled Status = "CANCELED" // Terminal
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusCanceled:
		return true
	default:
		return false
	}
}

// CanEdit checks if the quote can be edited in this status.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanSend checks if the quote can be sent to the client.
func (s Status) CanSend() bool {
	return s == StatusDraft
}

// CanDecide checks if the client can still accept or reject the quote.
func (s Status) CanDecide() bool {
	return s == StatusSent
}

// CanCancel checks if the quote can be canceled.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusSent
}

// Quote represents a priced proposal to a client. Accepting converts it into a
// DRAFT purchase order carrying the same lines and discount.
type Quote struct {
	ID         int64      `json:"id" db:"id"`
	Number     string     `json:"number" db:"number"`
	ClientID   int64      `json:"client_id" db:"client_id"`
	ClientName string     `json:"client_name" db:"client_name"`
	QuoteDate  time.Time  `json:"quote_date" db:"quote_date"`
	ValidUntil *time.Time `json:"valid_until,omitempty" db:"valid_until"`
	Status     Status     `json:"status" db:"status"`

	DiscountPercent float64 `json:"discount_percent" db:"discount_percent"`
	GrossTotal      float64 `json:"gross_total" db:"gross_total"`
	DiscountAmount  float64 `json:"discount_amount" db:"discount_amount"`
	NetTotal        float64 `json:"net_total" db:"net_total"`

	ConvertedOrderID     *int64  `json:"converted_order_id,omitempty" db:"converted_order_id"`
	ConvertedOrderNumber *string `json:"converted_order_number,omitempty" db:"converted_order_number"`

	Notes              *string    `json:"notes,omitempty" db:"notes"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	SentAt             *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	Lines              []Line     `json:"lines,omitempty" db:"-"`
}

// Line is a quoted item.
type Line struct {
	ID          int64   `json:"id" db:"id"`
	QuoteID     int64   `json:"quote_id" db:"quote_id"`
	LineNumber  int     `json:"line_number" db:"line_number"`
	Description string  `json:"description" db:"description"`
	Unit        string  `json:"unit" db:"unit"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	LineTotal   float64 `json:"line_total" db:"line_total"`
}
