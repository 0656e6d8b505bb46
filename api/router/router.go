package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/handler"
)

// WebhookPaths are the routes Stripe may be configured to deliver to. The
// first is canonical; the others are kept for endpoints registered earlier.
var WebhookPaths = []string{"/api/receive-stripe-webhook", "/stripe/webhook", "/webhook"}

// Options configures NewRouter.
type Options struct {
	Webhook *handler.WebhookHandler
	// Ping reports backing store health for /healthz; nil means always healthy.
	Ping           func(ctx context.Context) error
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *slog.Logger
}

// NewRouter returns the central HTTP router for the API on a grpc-gateway mux.
func NewRouter(opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := runtime.NewServeMux()
	for _, p := range WebhookPaths {
		if err := mux.HandlePath(http.MethodPost, p, opts.Webhook.Handle); err != nil {
			return nil, err
		}
	}
	if err := mux.HandlePath(http.MethodGet, "/healthz", healthz(opts.Ping)); err != nil {
		return nil, err
	}

	limited := NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, logger).Middleware(mux)
	return otelhttp.NewHandler(limited, "stripe-webhook"), nil
}

func healthz(ping func(ctx context.Context) error) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		status, body := http.StatusOK, map[string]string{"status": "ok"}
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
