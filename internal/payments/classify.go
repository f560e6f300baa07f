package payments

import "github.com/FasoDigital6/gestion-rad-sub000/internal/invoices"

// Classify derives an invoice's status from its payment position. DRAFT and
// CANCELED are unaffected by payments and pass through unchanged. The function
// is pure and runs after every payment mutation, so the same (net, amountPaid)
// always lands on the same status.
func Classify(net, amountPaid float64, current invoices.Status) invoices.Status {
	if current == invoices.StatusCanceled || current == invoices.StatusDraft {
		return current
	}
	switch {
	case amountPaid == 0:
		return invoices.StatusIssued
	case amountPaid >= net:
		return invoices.StatusPaid
	default:
		return invoices.StatusPartiallyPaid
	}
}
