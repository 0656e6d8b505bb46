package app

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/app"

type metrics struct {
	outcomes metric.Int64Counter
}

// newMetrics registers counters on the global meter provider. Without an SDK
// installed they are no-ops.
func newMetrics(logger *slog.Logger) *metrics {
	counter, err := otel.Meter(meterName).Int64Counter(
		"stripe.webhook.reconcile.outcomes",
		metric.WithDescription("Verified Stripe events by reconciliation outcome"),
	)
	if err != nil {
		logger.Error("failed to create outcome counter", "err", err)
		return &metrics{}
	}
	return &metrics{outcomes: counter}
}

func (m *metrics) record(ctx context.Context, eventType string, outcome Outcome, err error) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", string(outcome)),
		attribute.Bool("error", err != nil),
	))
}
