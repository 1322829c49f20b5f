package models

import "errors"

// Error taxonomy for the reservation engine. Handlers map these to HTTP
// statuses; everything else is treated as an internal error.
var (
	// ErrInvalidStay means the requested night count or occupancy counts
	// violate the site's booking rules.
	ErrInvalidStay = errors.New("invalid stay")

	// ErrConflict means the availability/capacity check failed at commit
	// time. The client may retry with a different window or site.
	ErrConflict = errors.New("dates no longer available")

	// ErrInvalidTransition means a state change was attempted that the
	// reservation state machine does not permit.
	ErrInvalidTransition = errors.New("invalid reservation transition")

	// ErrNotFound means an unknown site or reservation id.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the authenticated actor may not act on the
	// reservation or site.
	ErrForbidden = errors.New("forbidden")

	// ErrPaymentVerificationFailed means a gateway notification failed the
	// authenticity check. The sender is still acknowledged.
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
)
