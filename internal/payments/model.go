// Package payments implements the payment ledger: applying and reversing
// payments against invoice balances.
package payments

import "time"

// Method is the means of payment.
type Method string

const (
	MethodCash        Method = "CASH"
	MethodCheck       Method = "CHECK"
	MethodTransfer    Method = "TRANSFER"
	MethodMobileMoney Method = "MOBILE_MONEY"
	MethodCard        Method = "CARD"
	MethodOther       Method = "OTHER"
)

// IsValid checks if the method is valid.
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodCheck, MethodTransfer, MethodMobileMoney, MethodCard, MethodOther:
		return true
	default:
		return false
	}
}

// RequiresReference reports whether the method needs an external reference
// (check or transfer number).
func (m Method) RequiresReference() bool {
	return m == MethodCheck || m == MethodTransfer
}

// Payment is one applied payment against an invoice. Rows are immutable;
// corrections go through deletion, which reverses the original application.
type Payment struct {
	ID            int64     `json:"id" db:"id"`
	Number        string    `json:"number" db:"number"`
	InvoiceID     int64     `json:"invoice_id" db:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number" db:"invoice_number"`
	ClientID      int64     `json:"client_id" db:"client_id"`
	ClientName    string    `json:"client_name" db:"client_name"`
	Amount        float64   `json:"amount" db:"amount"`
	Method        Method    `json:"method" db:"method"`
	Reference     *string   `json:"reference,omitempty" db:"reference"`
	PaymentDate   time.Time `json:"payment_date" db:"payment_date"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
