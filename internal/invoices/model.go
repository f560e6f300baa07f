// Package invoices implements invoice records and the aggregation engine that
// rolls delivered-and-unbilled deliveries into a single invoice.
package invoices

import "time"

// Status represents the lifecycle of an invoice. PARTIALLY_PAID and PAID are
// reachable only through payment mutations, never set directly.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusIssued        Status = "ISSUED"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusPaid          Status = "PAID"
	StatusCanceled      Status = "CANCELED"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusPartiallyPaid, StatusPaid, StatusCanceled:
		return true
	default:
		return false
	}
}

// CanEdit checks if the invoice can be edited in this status.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanCancel checks if the invoice can still be canceled. Only CANCELED is
// terminal; a fully paid invoice can still be voided.
func (s Status) CanCancel() bool {
	return s != StatusCanceled
}

// Contributed reports whether an invoice in this status has been added to the
// client's running totals.
func (s Status) Contributed() bool {
	return s == StatusIssued || s == StatusPartiallyPaid || s == StatusPaid
}

// DeliveryRef identifies a source delivery consumed by an invoice.
type DeliveryRef struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
}

// Invoice represents a bill to a client, either aggregated from deliveries or
// typed manually. BalanceRemaining and AmountPaid move only through the
// payment ledger.
type Invoice struct {
	ID         int64      `json:"id" db:"id"`
	Number     string     `json:"number" db:"number"`
	ClientID   int64      `json:"client_id" db:"client_id"`
	ClientName string     `json:"client_name" db:"client_name"`
	DateIssued time.Time  `json:"date_issued" db:"date_issued"`
	DueDate    *time.Time `json:"due_date,omitempty" db:"due_date"`
	Status     Status     `json:"status" db:"status"`

	DiscountPercent  float64 `json:"discount_percent" db:"discount_percent"`
	GrossTotal       float64 `json:"gross_total" db:"gross_total"`
	DiscountAmount   float64 `json:"discount_amount" db:"discount_amount"`
	NetTotal         float64 `json:"net_total" db:"net_total"`
	AmountPaid       float64 `json:"amount_paid" db:"amount_paid"`
	BalanceRemaining float64 `json:"balance_remaining" db:"balance_remaining"`

	// SourceDeliveries is empty for manual invoices.
	SourceDeliveries []DeliveryRef `json:"source_deliveries,omitempty" db:"source_deliveries"`

	Notes              *string    `json:"notes,omitempty" db:"notes"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	IssuedAt           *time.Time `json:"issued_at,omitempty" db:"issued_at"`
	PaidAt             *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	Lines              []Line     `json:"lines,omitempty" db:"-"`
}

// SourceContribution traces how much of a merged invoice line came from one
// delivery.
type SourceContribution struct {
	DeliveryID     int64   `json:"delivery_id"`
	DeliveryNumber string  `json:"delivery_number"`
	Quantity       float64 `json:"quantity"`
}

// Line is an invoice line. Lines merged from deliveries keep one contribution
// entry per source delivery; manual lines have none.
type Line struct {
	ID          int64                `json:"id" db:"id"`
	InvoiceID   int64                `json:"invoice_id" db:"invoice_id"`
	LineNumber  int                  `json:"line_number" db:"line_number"`
	Description string               `json:"description" db:"description"`
	Unit        string               `json:"unit" db:"unit"`
	Quantity    float64              `json:"quantity" db:"quantity"`
	UnitPrice   float64              `json:"unit_price" db:"unit_price"`
	LineTotal   float64              `json:"line_total" db:"line_total"`
	Sources     []SourceContribution `json:"sources,omitempty" db:"source_contributions"`
}

// SourceDelivery is the slice of a delivery the aggregation engine reads.
type SourceDelivery struct {
	ID              int64
	Number          string
	ClientID        int64
	ClientName      string
	Status          string
	DiscountPercent float64
	InvoiceID       *int64
	Lines           []SourceDeliveryLine
}

// SourceDeliveryLine mirrors a delivery line for aggregation.
type SourceDeliveryLine struct {
	LineNumber        int
	Description       string
	Unit              string
	DeliveredQuantity float64
	UnitPrice         float64
}
