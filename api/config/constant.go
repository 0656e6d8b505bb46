package config

import (
	"log"
	"strings"
	"time"
)

const (
	// ProdDbId is the identifier for the production database
	ProdDbId = "old-cloud"

	StoreModePostgres = "postgres"
	StoreModeLog      = "log"

	// DefaultWebhookTolerance matches the Stripe SDK default signature freshness window.
	DefaultWebhookTolerance = 300 * time.Second
	DefaultDBTimeout        = 5 * time.Second
	DefaultRateLimitRPS     = 50
	DefaultRateLimitBurst   = 100
)

// CheckNotProdDB aborts immediately if the configured database URL contains ProdDbId.
// This should be called at the start of any test that interacts with the database.
func CheckNotProdDB(cfg *Config) {
	if cfg.DatabaseURL == "" {
		log.Fatal("DatabaseURL is not configured")
	}
	if strings.Contains(cfg.DatabaseURL, ProdDbId) {
		log.Fatalf("Tests aborted: DatabaseURL contains production identifier %s", ProdDbId)
	}
}
