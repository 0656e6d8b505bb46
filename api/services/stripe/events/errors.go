package events

import "errors"

// Verification failures. Both are client faults and must render identically to
// the caller; the wrapped cause is for internal logs only.
var (
	// ErrMalformedPayload indicates the body is not a parseable event envelope.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidSignature indicates a missing, unparseable, mismatched or stale signature.
	ErrInvalidSignature = errors.New("invalid signature")
)
