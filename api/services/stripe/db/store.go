package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/db SubscriptionStore

// ErrNotFound is returned by GetSubscription for an unknown customer.
var ErrNotFound = errors.New("subscription not found")

// SubscriptionStore is the persistence port of the reconciler. Rows are created
// out-of-band; implementations only ever update existing ones.
type SubscriptionStore interface {
	// UpdateSubscriptionStatus applies u to the row matching u.StripeCustomerID,
	// unless that row already reflects a newer event, and returns rows affected.
	UpdateSubscriptionStatus(ctx context.Context, u SubscriptionUpdate) (int64, error)
	CustomerExists(ctx context.Context, customerID string) (bool, error)
	GetSubscription(ctx context.Context, customerID string) (Subscription, error)
}

const updateSubscriptionStatusSQL = `
UPDATE subscriptions
   SET stripe_subscription_id = $1,
       status = $2,
       updated_at = $3,
       last_event_created = $4
 WHERE stripe_customer_id = $5
   AND (last_event_created IS NULL OR last_event_created <= $4)`

// PostgresStore is the lib/pq backed SubscriptionStore.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// UpdateSubscriptionStatus runs the conditional update in its own transaction.
// The deferred rollback releases the connection on every early return.
func (s *PostgresStore) UpdateSubscriptionStatus(ctx context.Context, u SubscriptionUpdate) (n int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, updateSubscriptionStatusSQL,
		u.StripeSubscriptionID, string(u.Status), u.UpdatedAt.UTC(), u.EventCreated, u.StripeCustomerID)
	if err != nil {
		return 0, fmt.Errorf("update subscription: %w", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM subscriptions WHERE stripe_customer_id = $1)", customerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) GetSubscription(ctx context.Context, customerID string) (Subscription, error) {
	var (
		sub         Subscription
		status      string
		lastCreated sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT stripe_customer_id, stripe_subscription_id, status, updated_at, last_event_created
		   FROM subscriptions WHERE stripe_customer_id = $1`, customerID,
	).Scan(&sub.StripeCustomerID, &sub.StripeSubscriptionID, &status, &sub.UpdatedAt, &lastCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	sub.Status = Status(status)
	sub.LastEventCreated = lastCreated.Int64
	return sub, nil
}

// LogStore only logs the writes it is asked to make. Every customer is treated
// as known, so each update reports one affected row.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStore{logger: logger}
}

func (s *LogStore) UpdateSubscriptionStatus(_ context.Context, u SubscriptionUpdate) (int64, error) {
	s.logger.Info("subscription status update (log only)",
		"stripe_customer_id", u.StripeCustomerID,
		"stripe_subscription_id", u.StripeSubscriptionID,
		"status", u.Status,
		"event_created", u.EventCreated,
	)
	return 1, nil
}

func (s *LogStore) CustomerExists(context.Context, string) (bool, error) { return true, nil }

func (s *LogStore) GetSubscription(context.Context, string) (Subscription, error) {
	return Subscription{}, ErrNotFound
}
