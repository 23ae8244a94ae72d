package maintenance

import "errors"

var (
	// ErrNotFound indicates a missing work order.
	ErrNotFound = errors.New("workorder: not found")
	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = errors.New("workorder: invalid status transition")
)
