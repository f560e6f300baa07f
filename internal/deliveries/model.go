// Package deliveries provides delivery note entity logic and the fulfillment
// progress engine that gates every delivery against its source order.
package deliveries

import "time"

// Status represents the lifecycle of a delivery note.
type Status string

const (
	StatusDraft     Status = "DRAFT"     // Initial creation, can be edited
	StatusEnRoute   Status = "EN_ROUTE"  // Goods left the warehouse
	StatusDelivered Status = "DELIVERED" // Client received goods, billable
	StatusCanceled  Status = "CANCELED"  // Canceled, excluded from fulfillment sums
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusEnRoute, StatusDelivered, StatusCanceled:
		return true
	default:
		return false
	}
}

// CanEdit checks if the delivery can be edited in this status.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanCancel checks if the delivery can be canceled. DELIVERED is terminal.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusEnRoute
}

// Delivery represents goods physically handed over against an order, possibly
// partially. InvoiceID is set once an invoice consumes this delivery; a
// delivery carrying an invoice reference can never be billed again.
type Delivery struct {
	ID            int64      `json:"id" db:"id"`
	Number        string     `json:"number" db:"number"`
	OrderID       int64      `json:"order_id" db:"order_id"`
	OrderNumber   string     `json:"order_number" db:"order_number"`
	InvoiceID     *int64     `json:"invoice_id,omitempty" db:"invoice_id"`
	InvoiceNumber *string    `json:"invoice_number,omitempty" db:"invoice_number"`
	ClientID      int64      `json:"client_id" db:"client_id"`
	ClientName    string     `json:"client_name" db:"client_name"`
	DeliveryDate  time.Time  `json:"delivery_date" db:"delivery_date"`
	Carrier       *string    `json:"carrier,omitempty" db:"carrier"`
	DeliveryTime  *string    `json:"delivery_time,omitempty" db:"delivery_time"`
	Observation   *string    `json:"observation,omitempty" db:"observation"`
	Status        Status     `json:"status" db:"status"`

	// DiscountPercent is inherited from the order at creation; deliveries have
	// no independently settable discount.
	DiscountPercent float64 `json:"discount_percent" db:"discount_percent"`
	GrossTotal      float64 `json:"gross_total" db:"gross_total"`
	DiscountAmount  float64 `json:"discount_amount" db:"discount_amount"`
	NetTotal        float64 `json:"net_total" db:"net_total"`

	EnRouteAt   *time.Time `json:"en_route_at,omitempty" db:"en_route_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	Lines       []Line     `json:"lines,omitempty" db:"-"`
}

// Line is an item moved in this delivery. OrderedQuantity is a read-only copy
// of the order line's quantity kept for display; DeliveredQuantity is the only
// financially significant quantity.
type Line struct {
	ID                int64   `json:"id" db:"id"`
	DeliveryID        int64   `json:"delivery_id" db:"delivery_id"`
	LineNumber        int     `json:"line_number" db:"line_number"`
	Description       string  `json:"description" db:"description"`
	Unit              string  `json:"unit" db:"unit"`
	OrderedQuantity   float64 `json:"ordered_quantity" db:"ordered_quantity"`
	DeliveredQuantity float64 `json:"delivered_quantity" db:"delivered_quantity"`
	UnitPrice         float64 `json:"unit_price" db:"unit_price"`
	LineTotal         float64 `json:"line_total" db:"line_total"`
}

// OrderRef is the slice of an order the fulfillment engine needs.
type OrderRef struct {
	ID              int64
	Number          string
	ClientID        int64
	ClientName      string
	Status          string
	DiscountPercent float64
	Lines           []OrderRefLine
}

// OrderRefLine mirrors an order line by its stable line number.
type OrderRefLine struct {
	LineNumber  int
	Description string
	Unit        string
	Quantity    float64
	UnitPrice   float64
}

// LineProgress describes fulfillment of a single order line.
type LineProgress struct {
	LineNumber       int     `json:"line_number"`
	Description      string  `json:"description"`
	Unit             string  `json:"unit"`
	OrderedQuantity  float64 `json:"ordered_quantity"`
	DeliveredSoFar   float64 `json:"delivered_so_far"`
	Remaining        float64 `json:"remaining"`
	PercentDelivered float64 `json:"percent_delivered"`
}

// ProgressReport is a point-in-time snapshot of an order's fulfillment.
type ProgressReport struct {
	OrderID        int64          `json:"order_id"`
	OrderNumber    string         `json:"order_number"`
	Lines          []LineProgress `json:"lines"`
	AveragePercent float64        `json:"average_percent"`
	FullyDelivered bool           `json:"fully_delivered"`
}
