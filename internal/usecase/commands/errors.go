package commands

import (
	"hotel-booking/internal/pkg/errs"
)

// Category sentinels. Concrete failures are wrapped from one of the leaf errors below and then
// marked with a category, so callers can branch on either level with errs.Is.
// Leaves are never pre-marked: a marked sentinel takes on its category's identity and two
// leaves of one category would then compare equal.
var (
	ErrNotFound = errs.New("not found")
	ErrConflict = errs.New("conflict")
)

var (
	ErrInvalidDateRange = errs.New("invalid date range")
	ErrInvalidPrice     = errs.New("book price must be greater than zero")

	ErrUserNotFound        = errs.New("user not found")
	ErrRoomNotFound        = errs.New("room not found")
	ErrReservationNotFound = errs.New("reservation not found")

	ErrUserOverlap    = errs.New("user already holds an overlapping reservation for this room")
	ErrRoomOverlap    = errs.New("room is already reserved for an overlapping period")
	ErrRaceLost       = errs.New("reservation lost a concurrent write for this room")
	ErrStateViolation = errs.New("reservation is already in a different final state")

	ErrNotOwner = errs.New("reservation belongs to another user")

	ErrMalformedEvent     = errs.New("malformed payment event")
	ErrSignatureInvalid   = errs.New("invalid webhook signature")
	ErrUnhandledEventType = errs.New("unhandled event type")

	ErrInvalidTransition       = errs.New("invalid reservation transition")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
	ErrGatewayFailure          = errs.New("payment gateway request failed")
)

func notFound(err error) error {
	return errs.Mark(err, ErrNotFound)
}

func conflict(err error) error {
	return errs.Mark(err, ErrConflict)
}

// IsValidationError reports whether err is an expected business outcome rather than an
// infrastructure failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDateRange,
		ErrInvalidPrice,
		ErrNotFound,
		ErrConflict,
		ErrNotOwner,
		ErrMalformedEvent,
	} {
		if errs.Is(err, target) {
			return true
		}
	}
	return false
}
