// Package service implements the event lifecycle engine, the admission
// controller for participation requests, and the stats merge layer that
// joins confirmed-request counts and view counts onto events. All state
// transitions for events and requests go through this package; handlers
// only translate between HTTP and the operations defined here.
package service

import "errors"

// Sentinel errors classifying every failure the service layer can
// produce. Operations wrap these with fmt.Errorf("%w: ...") so that
// handlers can map them to HTTP statuses with errors.Is while keeping
// a human-readable message.
var (
	// ErrNotFound signals that a referenced entity does not exist.  It
	// is also returned for public lookups of unpublished events so that
	// moderation state is never leaked.  Handlers should translate this
	// into an HTTP 404 response.
	ErrNotFound = errors.New("not found")

	// ErrValidation signals malformed input such as an event date in
	// the past or a negative participant limit.  Handlers should
	// translate this into an HTTP 400 response.
	ErrValidation = errors.New("invalid input")

	// ErrConflict signals a request that is incompatible with current
	// state: republishing a published event, overselling capacity,
	// filing a duplicate request.  Handlers should translate this into
	// an HTTP 409 response.
	ErrConflict = errors.New("conflict")

	// ErrForbidden signals that the acting user lacks rights over the
	// target entity, such as editing someone else's event.  Handlers
	// should translate this into an HTTP 403 response.
	ErrForbidden = errors.New("forbidden")
)
