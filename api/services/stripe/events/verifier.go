package events

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/webhook"
)

// SignatureHeader is the request header Stripe signs deliveries with.
const SignatureHeader = "Stripe-Signature"

// Verifier checks Stripe webhook signatures against a shared secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

// NewVerifier returns a Verifier for the endpoint secret. A zero tolerance
// falls back to the SDK default freshness window.
func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret cannot be empty")
	}
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}, nil
}

// Verify authenticates payload against the signature header and decodes the
// event envelope. payload must be the request body exactly as received.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (VerifiedEvent, error) {
	evt, err := webhook.ConstructEventWithTolerance(payload, signatureHeader, v.secret, v.tolerance)
	if err != nil {
		if isSignatureError(err) {
			return VerifiedEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return VerifiedEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if evt.Type == "" {
		return VerifiedEvent{}, fmt.Errorf("%w: event type missing", ErrMalformedPayload)
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return VerifiedEvent{}, fmt.Errorf("%w: event data object missing", ErrMalformedPayload)
	}
	return VerifiedEvent{event: evt, payloadHash: PayloadHash(payload)}, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// PayloadHash returns the hex sha256 of a raw body, used to correlate audit logs
// with deliveries without logging their contents.
func PayloadHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// VerifiedEvent is an event whose bytes were authenticated by a Verifier.
// It can only be obtained from Verify.
type VerifiedEvent struct {
	event       stripe.Event
	payloadHash string
}

func (e VerifiedEvent) ID() string   { return e.event.ID }
func (e VerifiedEvent) Type() string { return e.event.Type }

// Created is the provider-side creation time of the event, in unix seconds.
func (e VerifiedEvent) Created() int64 { return e.event.Created }

// Object is the raw JSON of data.object, decoded per event type by consumers.
func (e VerifiedEvent) Object() json.RawMessage {
	if e.event.Data == nil {
		return nil
	}
	return e.event.Data.Raw
}

func (e VerifiedEvent) PayloadHash() string { return e.payloadHash }

// IsZero reports whether e was not produced by Verify.
func (e VerifiedEvent) IsZero() bool { return e.payloadHash == "" }
