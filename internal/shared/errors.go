package shared

import "errors"

// Error taxonomy shared by every document service. Domain packages wrap these
// sentinels with the offending document numbers so callers can surface them.
var (
	// ErrNotFound indicates a referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a structurally invalid request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState indicates the operation is not permitted in the document's
	// current lifecycle status.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict indicates a transactional invariant would be violated.
	ErrConflict = errors.New("conflict")
)
