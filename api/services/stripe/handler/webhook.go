package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"

	stripeapp "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/app"
	"github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/events"
)

// MaxBodyBytes caps webhook bodies; Stripe payloads stay far below it.
const MaxBodyBytes = 65536

// Verifier authenticates raw webhook deliveries.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) (events.VerifiedEvent, error)
}

// WebhookHandler receives Stripe webhook deliveries.
type WebhookHandler struct {
	verifier Verifier
	svc      stripeapp.Service
	logger   *slog.Logger
}

func NewWebhookHandler(v Verifier, svc stripeapp.Service, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{verifier: v, svc: svc, logger: logger}
}

// Handle matches runtime.HandlerFunc so it can be mounted on the gateway mux.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	h.ServeHTTP(w, r)
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	log := h.logger.With("request_id", requestID)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Warn("failed to read webhook body", "err", err)
		writeStatus(w, codes.InvalidArgument)
		return
	}

	event, err := h.verifier.Verify(payload, r.Header.Get(events.SignatureHeader))
	if err != nil {
		// The cause stays in the logs; the response is the same for every failure.
		log.Warn("webhook verification failed", "err", err, "payload_sha256", events.PayloadHash(payload))
		writeStatus(w, codes.InvalidArgument)
		return
	}
	log = log.With("event_id", event.ID(), "event_type", event.Type())

	// A started reconciliation runs to completion even if Stripe hangs up.
	outcome, err := h.svc.Reconcile(context.WithoutCancel(r.Context()), event)
	code := codeFor(err)
	switch {
	case err == nil:
		log.Info("webhook handled", "outcome", outcome)
	case code == codes.OK:
		log.Warn("webhook acknowledged without update", "outcome", outcome, "err", err)
	default:
		log.Error("webhook reconciliation failed", "outcome", outcome, "err", err, "payload_sha256", event.PayloadHash())
	}
	writeStatus(w, code)
}

// codeFor maps app errors to gRPC codes; the HTTP status follows from the
// gateway's standard code mapping.
func codeFor(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, stripeapp.ErrNoMatchingCustomer):
		// Rows are created out-of-band; redelivery would not help.
		return codes.OK
	case errors.Is(err, stripeapp.ErrBadEvent):
		return codes.InvalidArgument
	case errors.Is(err, stripeapp.ErrPersistenceUnavailable):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

var responseBodies = map[codes.Code]any{
	codes.OK:              map[string]bool{"ok": true},
	codes.InvalidArgument: map[string]string{"error": "invalid request"},
	codes.Unavailable:     map[string]string{"error": "temporarily unavailable"},
}

func writeStatus(w http.ResponseWriter, code codes.Code) {
	body, ok := responseBodies[code]
	if !ok {
		body = map[string]string{"error": "internal error"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(runtime.HTTPStatusFromCode(code))
	_ = json.NewEncoder(w).Encode(body)
}
