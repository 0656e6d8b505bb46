package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/events"
	"github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/events/eventstest"
)

const secret = "whsec_test_secret"

func newVerifier(t *testing.T) *events.Verifier {
	t.Helper()
	v, err := events.NewVerifier(secret, 5*time.Minute)
	require.NoError(t, err)
	return v
}

func samplePayload() []byte {
	return eventstest.Payload("evt_1", "customer.subscription.updated", 1713800000,
		eventstest.Subscription("sub_1", "cus_1", "active"))
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := events.NewVerifier("", time.Minute)
	assert.Error(t, err)
}

func TestVerify_RoundTrip(t *testing.T) {
	v := newVerifier(t)
	payload := samplePayload()

	evt, err := v.Verify(payload, eventstest.Sign(payload, secret, time.Now()))
	require.NoError(t, err)
	assert.False(t, evt.IsZero())
	assert.Equal(t, "evt_1", evt.ID())
	assert.Equal(t, "customer.subscription.updated", evt.Type())
	assert.Equal(t, int64(1713800000), evt.Created())
	assert.JSONEq(t, `{"id":"sub_1","object":"subscription","customer":"cus_1","status":"active"}`, string(evt.Object()))
	assert.Equal(t, events.PayloadHash(payload), evt.PayloadHash())
}

func TestVerify_WrongSecret(t *testing.T) {
	v := newVerifier(t)
	payload := samplePayload()

	_, err := v.Verify(payload, eventstest.Sign(payload, "whsec_other", time.Now()))
	assert.ErrorIs(t, err, events.ErrInvalidSignature)
}

func TestVerify_AnySingleByteMutationFails(t *testing.T) {
	v := newVerifier(t)
	payload := samplePayload()
	header := eventstest.Sign(payload, secret, time.Now())

	for i := range payload {
		mutated := append([]byte(nil), payload...)
		mutated[i] ^= 0x01
		_, err := v.Verify(mutated, header)
		if !assert.Error(t, err, "mutation at byte %d was accepted", i) {
			return
		}
	}
}

func TestVerify_StaleTimestamp(t *testing.T) {
	v := newVerifier(t)
	payload := samplePayload()

	_, err := v.Verify(payload, eventstest.Sign(payload, secret, time.Now().Add(-10*time.Minute)))
	assert.ErrorIs(t, err, events.ErrInvalidSignature)
}

func TestVerify_MissingOrGarbledHeader(t *testing.T) {
	v := newVerifier(t)
	payload := samplePayload()

	for _, header := range []string{"", "garbage", "t=notanumber,v1=abc"} {
		_, err := v.Verify(payload, header)
		assert.ErrorIs(t, err, events.ErrInvalidSignature, "header %q", header)
	}
}

func TestVerify_MalformedPayload(t *testing.T) {
	v := newVerifier(t)

	for _, payload := range [][]byte{
		[]byte("not json"),
		[]byte(`{"id":"evt_1","data":{"object":{}}}`),
		[]byte(`{"id":"evt_1","type":"customer.subscription.updated"}`),
	} {
		_, err := v.Verify(payload, eventstest.Sign(payload, secret, time.Now()))
		assert.ErrorIs(t, err, events.ErrMalformedPayload, "payload %s", payload)
	}
}

func TestVerifiedEvent_ZeroValue(t *testing.T) {
	var evt events.VerifiedEvent
	assert.True(t, evt.IsZero())
	assert.Nil(t, evt.Object())
}
