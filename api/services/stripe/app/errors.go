package app

import "errors"

// Typed errors for the Stripe app layer. These enable HTTP mapping without
// relying on SDK-specific error types at the transport layer.
var (
	// ErrBadEvent indicates a verified event whose object is invalid or missing required fields.
	ErrBadEvent = errors.New("bad event")
	// ErrNoMatchingCustomer indicates no subscription row exists for the event's customer.
	ErrNoMatchingCustomer = errors.New("no matching customer")
	// ErrPersistenceUnavailable indicates the store could not be written after retries.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
