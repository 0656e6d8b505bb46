package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tbeaudouin05/stripe-reconciler/api/config"
	"github.com/tbeaudouin05/stripe-reconciler/api/database"
	"github.com/tbeaudouin05/stripe-reconciler/api/router"
	stripeapp "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/app"
	stripedb "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/db"
	"github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/events"
	"github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/handler"
)

// App holds the wired services of one process.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sql.DB // nil in log-only mode
	Service stripeapp.Service
	Handler http.Handler
}

// Init opens the database (unless running log-only), applies migrations and
// wires the verifier, reconciler and HTTP router from cfg.
func Init(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	var store stripedb.SubscriptionStore
	switch cfg.StoreMode {
	case config.StoreModeLog:
		logger.Warn("running with log-only subscription store; no database writes will happen")
		store = stripedb.NewLogStore(logger)
	default:
		if err := database.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		store = stripedb.NewPostgresStore(db)
	}

	verifier, err := events.NewVerifier(cfg.StripeWebhookSecret, cfg.WebhookTolerance)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create webhook verifier: %w", err)
	}

	a.Service = stripeapp.NewService(store,
		stripeapp.WithLogger(logger),
		stripeapp.WithPersistenceTimeout(cfg.DBTimeout),
	)

	a.Handler, err = router.NewRouter(router.Options{
		Webhook:        handler.NewWebhookHandler(verifier, a.Service, logger),
		Ping:           a.Ping,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	return a, nil
}

// Ping checks the database; it always succeeds in log-only mode.
func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
