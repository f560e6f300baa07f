package orders

import (
	"fmt"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Domain errors for purchase orders. Each wraps a taxonomy sentinel so HTTP
// mapping and callers can classify with errors.Is.
var (
	ErrNotFound     = fmt.Errorf("order: %w", shared.ErrNotFound)
	ErrLineNotFound = fmt.Errorf("order line: %w", shared.ErrNotFound)

	ErrCannotEdit    = fmt.Errorf("%w: only draft orders can be modified", shared.ErrInvalidState)
	ErrCannotDelete  = fmt.Errorf("%w: only draft orders can be deleted", shared.ErrInvalidState)
	ErrHasDeliveries = fmt.Errorf("%w: order is referenced by deliveries", shared.ErrConflict)
	ErrCannotSend    = fmt.Errorf("%w: only draft orders can be sent", shared.ErrInvalidState)
	ErrCannotApprove = fmt.Errorf("%w: only sent orders can be approved", shared.ErrInvalidState)
	ErrCannotCancel  = fmt.Errorf("%w: order can no longer be canceled", shared.ErrInvalidState)

	ErrEmptyLines      = fmt.Errorf("%w: at least one line is required", shared.ErrInvalidInput)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be greater than zero", shared.ErrInvalidInput)
	ErrInvalidDiscount = fmt.Errorf("%w: discount percent must be between 0 and 100", shared.ErrInvalidInput)
)
