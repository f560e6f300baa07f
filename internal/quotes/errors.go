package quotes

import (
	"fmt"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

// Domain errors for quotes.
var (
	ErrNotFound = fmt.Errorf("quote: %w", shared.ErrNotFound)

	ErrCannotEdit    = fmt.Errorf("%w: only draft quotes can be modified", shared.ErrInvalidState)
	ErrCannotDelete  = fmt.Errorf("%w: only draft quotes can be deleted", shared.ErrInvalidState)
	ErrCannotSend    = fmt.Errorf("%w: only draft quotes can be sent", shared.ErrInvalidState)
	ErrCannotDecide  = fmt.Errorf("%w: only sent quotes can be accepted or rejected", shared.ErrInvalidState)
	ErrCannotCancel  = fmt.Errorf("%w: quote can no longer be canceled", shared.ErrInvalidState)
	ErrCannotConvert = fmt.Errorf("%w: only sent quotes can be converted to an order", shared.ErrInvalidState)

	ErrEmptyLines      = fmt.Errorf("%w: at least one line is required", shared.ErrInvalidInput)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be greater than zero", shared.ErrInvalidInput)
	ErrInvalidDiscount = fmt.Errorf("%w: discount percent must be between 0 and 100", shared.ErrInvalidInput)
)
