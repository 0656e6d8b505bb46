package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"

	stripedb "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/db"
	"github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/events"
)

// DefaultPersistenceTimeout bounds a single store call so a slow database
// cannot hold a delivery past Stripe's retry window.
const DefaultPersistenceTimeout = 5 * time.Second

// Service defines the business operations for the Stripe domain.
type Service interface {
	// Reconcile applies a verified event to the local subscription record.
	// The Outcome is meaningful even when err is non-nil.
	Reconcile(ctx context.Context, event events.VerifiedEvent) (Outcome, error)
}

type serviceImpl struct {
	store      stripedb.SubscriptionStore
	logger     *slog.Logger
	now        func() time.Time
	timeout    time.Duration
	newBackOff func() backoff.BackOff
	validate   *validator.Validate
	metrics    *metrics
}

// Option customizes the service returned by NewService.
type Option func(*serviceImpl)

func WithLogger(l *slog.Logger) Option { return func(s *serviceImpl) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *serviceImpl) { s.now = now } }

// WithPersistenceTimeout sets the per-attempt deadline for store calls.
func WithPersistenceTimeout(d time.Duration) Option {
	return func(s *serviceImpl) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBackOff replaces the retry policy used for transient store failures.
func WithBackOff(f func() backoff.BackOff) Option { return func(s *serviceImpl) { s.newBackOff = f } }

func NewService(store stripedb.SubscriptionStore, opts ...Option) Service {
	s := serviceImpl{
		store:      store,
		logger:     slog.Default(),
		now:        time.Now,
		timeout:    DefaultPersistenceTimeout,
		newBackOff: defaultBackOff,
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.metrics = newMetrics(s.logger)
	return s
}

func (s serviceImpl) Reconcile(ctx context.Context, event events.VerifiedEvent) (outcome Outcome, err error) {
	if event.IsZero() {
		return OutcomeFailed, fmt.Errorf("%w: event was not verified", ErrBadEvent)
	}
	log := s.logger.With("event_id", event.ID(), "event_type", event.Type())
	defer func() { s.metrics.record(ctx, event.Type(), outcome, err) }()

	switch event.Type() {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return s.reconcileSubscription(ctx, log, event)
	case EventCheckoutSessionCompleted:
		return s.handleCheckoutSessionCompleted(log, event)
	default:
		log.Debug("ignoring unhandled event type")
		return OutcomeIgnoredUnknownType, nil
	}
}
