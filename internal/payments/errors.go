package payments

import (
	"fmt"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Domain errors for the payment ledger.
var (
	ErrNotFound        = fmt.Errorf("payment: %w", shared.ErrNotFound)
	ErrInvoiceNotFound = fmt.Errorf("invoice: %w", shared.ErrNotFound)

	ErrInvoiceCanceled  = fmt.Errorf("%w: cannot pay a canceled invoice", shared.ErrInvalidState)
	ErrInvoiceNotIssued = fmt.Errorf("%w: invoice has not been issued", shared.ErrInvalidState)
	ErrAlreadyPaid      = fmt.Errorf("%w: invoice already fully paid", shared.ErrInvalidState)
	ErrAdjustCanceled   = fmt.Errorf("%w: cannot adjust payments on a canceled invoice", shared.ErrInvalidState)

	ErrInvalidAmount    = fmt.Errorf("%w: amount must be greater than zero", shared.ErrInvalidInput)
	ErrInvalidMethod    = fmt.Errorf("%w: unknown payment method", shared.ErrInvalidInput)
	ErrMissingReference = fmt.Errorf("%w: reference is required for this payment method", shared.ErrInvalidInput)

	ErrOverpayment = fmt.Errorf("%w: amount exceeds remaining balance", shared.ErrConflict)
)
