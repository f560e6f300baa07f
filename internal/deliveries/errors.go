package deliveries

import (
	"fmt"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Domain errors for delivery notes.
var (
	ErrNotFound      = fmt.Errorf("delivery: %w", shared.ErrNotFound)
	ErrOrderNotFound = fmt.Errorf("order: %w", shared.ErrNotFound)
	ErrLineNotFound  = fmt.Errorf("order line: %w", shared.ErrNotFound)

	ErrOrderNotApproved = fmt.Errorf("%w: only approved orders can generate deliveries", shared.ErrInvalidState)
	ErrCannotEdit       = fmt.Errorf("%w: only draft deliveries can be modified", shared.ErrInvalidState)
	ErrCannotShip       = fmt.Errorf("%w: only draft deliveries can be marked en route", shared.ErrInvalidState)
	ErrCannotDeliver    = fmt.Errorf("%w: only en-route deliveries can be marked delivered", shared.ErrInvalidState)
	ErrCannotCancel     = fmt.Errorf("%w: delivery can no longer be canceled", shared.ErrInvalidState)

	ErrAlreadyInvoiced = fmt.Errorf("%w: delivery is referenced by an invoice", shared.ErrConflict)

	ErrEmptyLines      = fmt.Errorf("%w: at least one line is required", shared.ErrInvalidInput)
	ErrInvalidQuantity = fmt.Errorf("%w: delivered quantity must be greater than zero", shared.ErrInvalidInput)

	// ErrExceedsRemaining reports an over-delivery attempt. It is a Conflict
	// because the remaining quantity is derived from sibling deliveries and the
	// check only holds inside the transaction that performed it.
	ErrExceedsRemaining = fmt.Errorf("%w: delivered quantity exceeds remaining", shared.ErrConflict)
)
