// Package eventstest builds signed Stripe webhook deliveries for tests.
package eventstest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Sign returns a Stripe-Signature header value for payload signed with secret at t.
func Sign(payload []byte, secret string, t time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", t.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", t.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// Payload returns an event envelope of the given type wrapping object as data.object.
func Payload(id, eventType string, created int64, object any) []byte {
	raw, err := json.Marshal(object)
	if err != nil {
		panic(err)
	}
	b, err := json.Marshal(map[string]any{
		"id":      id,
		"object":  "event",
		"type":    eventType,
		"created": created,
		"data":    map[string]json.RawMessage{"object": raw},
	})
	if err != nil {
		panic(err)
	}
	return b
}

// Subscription returns a minimal subscription object as Stripe sends it, with
// the customer unexpanded.
func Subscription(id, customerID, status string) map[string]any {
	return map[string]any{
		"id":       id,
		"object":   "subscription",
		"customer": customerID,
		"status":   status,
	}
}
