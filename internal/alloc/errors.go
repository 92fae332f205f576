package alloc

import "errors"

// Errors returned by Gateway operations. Callers test for them with
// errors.Is; the returned error usually wraps one of these with detail.
var (
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrAlreadyFinalized       = errors.New("already finalized")
	ErrInvalidInterval        = errors.New("invalid interval")
	ErrReservationConflict    = errors.New("reservation conflict")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrNotFound               = errors.New("not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrTransientStoreConflict = errors.New("transient store conflict")

	ErrItemUnavailable     = errors.New("item unavailable")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidArgument     = errors.New("invalid argument")
)
