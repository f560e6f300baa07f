package invoices

import (
	"fmt"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Domain errors for invoices.
var (
	ErrNotFound         = fmt.Errorf("invoice: %w", shared.ErrNotFound)
	ErrDeliveryNotFound = fmt.Errorf("delivery: %w", shared.ErrNotFound)

	ErrNotDelivered = fmt.Errorf("%w: only delivered deliveries can be invoiced", shared.ErrInvalidState)
	ErrCannotEdit   = fmt.Errorf("%w: only draft invoices can be modified", shared.ErrInvalidState)
	ErrCannotDelete = fmt.Errorf("%w: only draft invoices can be deleted", shared.ErrInvalidState)
	ErrCannotIssue  = fmt.Errorf("%w: only draft invoices can be issued", shared.ErrInvalidState)
	ErrSourcedLines = fmt.Errorf("%w: lines of a delivery-sourced invoice cannot be replaced", shared.ErrInvalidState)
	ErrCannotCancel = fmt.Errorf("%w: invoice is already canceled", shared.ErrInvalidState)

	ErrMixedClients      = fmt.Errorf("%w: all source documents must belong to the same client", shared.ErrInvalidInput)
	ErrEmptyLines        = fmt.Errorf("%w: at least one line is required", shared.ErrInvalidInput)
	ErrDuplicateDelivery = fmt.Errorf("%w: delivery listed twice", shared.ErrInvalidInput)

	// Payment-driven statuses carry amountPaid and balance side effects that a
	// direct transition cannot supply.
	ErrPaymentDrivenStatus = fmt.Errorf("%w: status is set by payments, not directly", shared.ErrInvalidInput)
	ErrUnknownStatus       = fmt.Errorf("%w: unknown target status", shared.ErrInvalidInput)

	ErrAlreadyInvoiced = fmt.Errorf("%w: delivery already invoiced", shared.ErrConflict)
)
