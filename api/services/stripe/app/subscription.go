package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	stripe "github.com/stripe/stripe-go"

	stripedb "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/db"
	"github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/events"
)

// reconcileSubscription handles customer.subscription.created and .updated.
func (s serviceImpl) reconcileSubscription(ctx context.Context, log *slog.Logger, event events.VerifiedEvent) (Outcome, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Object(), &sub); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: error unmarshaling into Subscription: %v", ErrBadEvent, err)
	}
	change := subscriptionChange{SubscriptionID: sub.ID}
	if sub.Customer != nil {
		change.CustomerID = sub.Customer.ID
	}
	if err := s.validate.Struct(change); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}

	status, known := MapStatus(sub.Status)
	if !known {
		log.Warn("unknown stripe subscription status, using default",
			"remote_status", sub.Status, "status", status, "known_statuses", knownStatuses())
	}
	log = log.With("stripe_customer_id", change.CustomerID, "stripe_subscription_id", change.SubscriptionID)

	update := stripedb.SubscriptionUpdate{
		StripeCustomerID:     change.CustomerID,
		StripeSubscriptionID: change.SubscriptionID,
		Status:               status,
		UpdatedAt:            s.now(),
		EventCreated:         event.Created(),
	}
	var rows int64
	err := s.withRetry(ctx, log, "update_subscription_status", func(ctx context.Context) error {
		var err error
		rows, err = s.store.UpdateSubscriptionStatus(ctx, update)
		return err
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: error updating subscription: %v", ErrPersistenceUnavailable, err)
	}
	if rows > 0 {
		log.Info("subscription reconciled", "remote_status", sub.Status, "status", status)
		return OutcomeUpdated, nil
	}

	// Zero rows: either the customer is unknown or it already holds a newer event.
	var exists bool
	err = s.withRetry(ctx, log, "customer_exists", func(ctx context.Context) error {
		var err error
		exists, err = s.store.CustomerExists(ctx, change.CustomerID)
		return err
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: error checking customer: %v", ErrPersistenceUnavailable, err)
	}
	if !exists {
		log.Warn("no subscription record for customer")
		return OutcomeNoMatchingCustomer, fmt.Errorf("%w: %s", ErrNoMatchingCustomer, change.CustomerID)
	}
	log.Info("skipping event older than stored state", "event_created", event.Created())
	return OutcomeStaleEvent, nil
}

// handleCheckoutSessionCompleted acknowledges a completed checkout. Subscription
// rows are created out-of-band, so nothing is written here.
func (s serviceImpl) handleCheckoutSessionCompleted(log *slog.Logger, event events.VerifiedEvent) (Outcome, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Object(), &session); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: error unmarshaling into CheckoutSession: %v", ErrBadEvent, err)
	}
	if session.ID == "" {
		return OutcomeFailed, fmt.Errorf("%w: session ID not found in CheckoutSession", ErrBadEvent)
	}
	attrs := []any{"checkout_session_id", session.ID}
	if session.Customer != nil {
		attrs = append(attrs, "stripe_customer_id", session.Customer.ID)
	}
	if session.Subscription != nil {
		attrs = append(attrs, "stripe_subscription_id", session.Subscription.ID)
	}
	log.Info("payment successful", attrs...)
	return OutcomeRecorded, nil
}
