package app

import (
	"slices"

	stripe "github.com/stripe/stripe-go"

	stripedb "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/db"
)

// DefaultStatus is where every status without an explicit mapping lands,
// including values Stripe may add in the future.
const DefaultStatus = stripedb.StatusPastDue

// statusMapping lists every Stripe subscription status we know about. Only an
// active subscription grants access and only a canceled one is terminal;
// everything in between is treated as past due.
var statusMapping = map[stripe.SubscriptionStatus]stripedb.Status{
	stripe.SubscriptionStatusActive:            stripedb.StatusActive,
	stripe.SubscriptionStatusCanceled:          stripedb.StatusCanceled,
	stripe.SubscriptionStatusPastDue:           stripedb.StatusPastDue,
	stripe.SubscriptionStatusTrialing:          stripedb.StatusPastDue,
	stripe.SubscriptionStatusUnpaid:            stripedb.StatusPastDue,
	stripe.SubscriptionStatusIncomplete:        stripedb.StatusPastDue,
	stripe.SubscriptionStatusIncompleteExpired: stripedb.StatusPastDue,
	"paused":                                   stripedb.StatusPastDue,
}

// MapStatus maps a Stripe subscription status onto the local enumeration. The
// second result is false when the status is unknown and the default was used.
func MapStatus(remote stripe.SubscriptionStatus) (stripedb.Status, bool) {
	if s, ok := statusMapping[remote]; ok {
		return s, true
	}
	return DefaultStatus, false
}

// knownStatuses returns the Stripe statuses with an explicit mapping, sorted.
func knownStatuses() []stripe.SubscriptionStatus {
	out := make([]stripe.SubscriptionStatus, 0, len(statusMapping))
	for s := range statusMapping {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
