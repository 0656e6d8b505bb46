package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", withBinaryParameters(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Webhook deliveries are short single-row writes; a small pool is plenty and
	// keeps us well under PgBouncer/Neon connection limits.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// withBinaryParameters appends binary_parameters=yes to the DSN unless the caller
// already chose a value. lib/pq then sends parameters inline with the unnamed
// statement, which keeps PgBouncer transaction pooling happy. Only driver
// settings may be added here: lib/pq forwards unknown keys to the server as
// runtime parameters and Postgres rejects them at startup.
func withBinaryParameters(dsn string) string {
	if strings.Contains(strings.ToLower(dsn), "binary_parameters=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "binary_parameters=yes"
}
