package app

// Stripe event types handled by the reconciler.
const (
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

// Outcome tells apart the ways a verified event can be handled.
type Outcome string

const (
	// OutcomeUpdated means the subscription row was written.
	OutcomeUpdated Outcome = "updated"
	// OutcomeRecorded means the event was acknowledged and logged without a write.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeIgnoredUnknownType means the event type is not handled.
	OutcomeIgnoredUnknownType Outcome = "ignored_unknown_type"
	// OutcomeNoMatchingCustomer means no row exists for the customer; nothing was created.
	OutcomeNoMatchingCustomer Outcome = "no_matching_customer"
	// OutcomeStaleEvent means the row already reflects a newer event.
	OutcomeStaleEvent Outcome = "stale_event"
	// OutcomeFailed is reported alongside a non-nil error.
	OutcomeFailed Outcome = "failed"
)

// subscriptionChange is the part of a subscription event the reconciler writes.
type subscriptionChange struct {
	CustomerID     string `validate:"required,max=255"`
	SubscriptionID string `validate:"required,max=255"`
}
