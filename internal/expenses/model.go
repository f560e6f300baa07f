// Package expenses records outgoing money unrelated to client billing. No
// effect on client aggregates.
package expenses

import "time"

// Expense is a single recorded expense.
type Expense struct {
	ID            int64     `json:"id" db:"id"`
	Number        string    `json:"number" db:"number"`
	Label         string    `json:"label" db:"label"`
	Category      *string   `json:"category,omitempty" db:"category"`
	Amount        float64   `json:"amount" db:"amount"`
	ExpenseDate   time.Time `json:"expense_date" db:"expense_date"`
	PaymentMethod *string   `json:"payment_method,omitempty" db:"payment_method"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	Recorded      bool      `json:"recorded" db:"recorded"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CreateRequest carries the fields accepted when recording an expense.
type CreateRequest struct {
	Label         string    `json:"label" validate:"required,min=2,max=300"`
	Category      *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Amount        float64   `json:"amount" validate:"required,gt=0"`
	ExpenseDate   time.Time `json:"expense_date" validate:"required"`
	PaymentMethod *string   `json:"payment_method,omitempty" validate:"omitempty,max=50"`
	Notes         *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateRequest carries a partial expense update.
type UpdateRequest struct {
	Label         *string    `json:"label,omitempty" validate:"omitempty,min=2,max=300"`
	Category      *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	Amount        *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	ExpenseDate   *time.Time `json:"expense_date,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty" validate:"omitempty,max=50"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Recorded      *bool      `json:"recorded,omitempty"`
}

// ListRequest filters expense listings.
type ListRequest struct {
	Category *string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
