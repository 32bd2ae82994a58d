package booking

import "errors"

var (
	// ErrCapacityExceeded means the booking race was lost or the session is
	// genuinely full. Callers branch on it; it is an expected outcome under load.
	ErrCapacityExceeded = errors.New("session has no more spots available")

	// ErrReservationExpired is returned when an action targets a pending
	// reservation whose payment deadline has passed.
	ErrReservationExpired = errors.New("reservation has expired")

	// ErrDeadlineNotReached rejects an expire call before the payment deadline.
	ErrDeadlineNotReached = errors.New("reservation payment deadline has not passed")

	// ErrNotPending rejects transitions that require a pending reservation.
	ErrNotPending = errors.New("reservation is not pending payment")

	ErrSessionNotBookable = errors.New("session is not open for booking")

	ErrFreeTicketUnavailable = errors.New("no valid free ticket available")
)
