package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	stripedb "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/db"
)

const maxPersistenceRetries = 3

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, maxPersistenceRetries)
}

// withRetry runs op with a fresh per-attempt timeout, retrying only transient
// store failures. It stops early when ctx is done.
func (s serviceImpl) withRetry(ctx context.Context, log *slog.Logger, name string, op func(context.Context) error) error {
	attempt := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !stripedb.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Warn("store call failed, retrying", "op", name, "err", err, "retry_in", next)
	}
	return backoff.RetryNotify(attempt, backoff.WithContext(s.newBackOff(), ctx), notify)
}
