package db

import "time"

// Status is the local subscription status. The set is closed; see app.MapStatus.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusPastDue  Status = "past_due"
)

// Subscription mirrors a row of the subscriptions table.
type Subscription struct {
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               Status
	UpdatedAt            time.Time
	// Unix seconds of the newest Stripe event applied; zero when never reconciled.
	LastEventCreated int64
}

// SubscriptionUpdate is one reconciliation write keyed by StripeCustomerID.
type SubscriptionUpdate struct {
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               Status
	UpdatedAt            time.Time
	// The write is skipped when the stored value is newer.
	EventCreated int64
}
