package clients

import "time"

// Client is a customer of the organisation. The aggregate columns are running
// totals maintained as signed deltas by the invoice and payment services; they
// are never recomputed wholesale on the live write path.
type Client struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Contact   *string `json:"contact,omitempty" db:"contact"`
	Phone     *string `json:"phone,omitempty" db:"phone"`
	Email     *string `json:"email,omitempty" db:"email"`
	Address   *string `json:"address,omitempty" db:"address"`

	TotalDelivered float64 `json:"total_delivered" db:"total_delivered"`
	TotalInvoiced  float64 `json:"total_invoiced" db:"total_invoiced"`
	TotalPaid      float64 `json:"total_paid" db:"total_paid"`
	TotalOwed      float64 `json:"total_owed" db:"total_owed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AggregateDelta is a signed adjustment applied to a client's running totals.
type AggregateDelta struct {
	Delivered float64
	Invoiced  float64
	Paid      float64
	Owed      float64
}

// CreateRequest carries the fields accepted when registering a client.
type CreateRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=200"`
	Contact *string `json:"contact,omitempty" validate:"omitempty,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// UpdateRequest carries a partial client update.
type UpdateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Contact *string `json:"contact,omitempty" validate:"omitempty,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ListRequest filters client listings.
type ListRequest struct {
	Search string
	Limit  int
	Offset int
}
