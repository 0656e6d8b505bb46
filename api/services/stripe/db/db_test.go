package db_test

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tbeaudouin05/stripe-reconciler/api/config"
	database "github.com/tbeaudouin05/stripe-reconciler/api/database"
	stripedb "github.com/tbeaudouin05/stripe-reconciler/api/services/stripe/db"
)

var testDB *sql.DB

var customerIDs = []string{"db-test-cus-1", "db-test-cus-stale", "db-test-cus-tx"}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Println("skipping database integration tests in -short mode")
		os.Exit(m.Run())
	}
	cfg, err := config.LoadConfig()
	if err != nil || cfg.DatabaseURL == "" {
		fmt.Println("skipping database integration tests: no database configured")
		os.Exit(m.Run())
	}
	// Prevent tests from running against production database
	config.CheckNotProdDB(cfg)

	if err := database.Migrate(cfg.DatabaseURL, nil); err != nil {
		panic(err)
	}
	testDB, err = database.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}
	cleanup()
	code := m.Run()
	cleanup()
	_ = testDB.Close()
	os.Exit(code)
}

func cleanup() {
	for _, id := range customerIDs {
		_, _ = testDB.Exec("DELETE FROM subscriptions WHERE stripe_customer_id = $1", id)
	}
}

func requireDB(t *testing.T) *stripedb.PostgresStore {
	t.Helper()
	if testDB == nil {
		t.Skip("database not configured")
	}
	t.Cleanup(cleanup)
	return stripedb.NewPostgresStore(testDB)
}

func insertCustomer(t *testing.T, customerID string) {
	t.Helper()
	_, err := testDB.Exec(
		"INSERT INTO subscriptions (stripe_customer_id, stripe_subscription_id, status) VALUES ($1, '', 'past_due')",
		customerID)
	require.NoError(t, err)
}

func TestUpdateSubscriptionStatus_UpdatesExistingRow(t *testing.T) {
	store := requireDB(t)
	ctx := context.Background()
	insertCustomer(t, "db-test-cus-1")

	before, err := store.GetSubscription(ctx, "db-test-cus-1")
	require.NoError(t, err)

	now := before.UpdatedAt.Add(time.Second)
	n, err := store.UpdateSubscriptionStatus(ctx, stripedb.SubscriptionUpdate{
		StripeCustomerID:     "db-test-cus-1",
		StripeSubscriptionID: "sub_1",
		Status:               stripedb.StatusActive,
		UpdatedAt:            now,
		EventCreated:         100,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	after, err := store.GetSubscription(ctx, "db-test-cus-1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", after.StripeSubscriptionID)
	assert.Equal(t, stripedb.StatusActive, after.Status)
	assert.Equal(t, int64(100), after.LastEventCreated)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdateSubscriptionStatus_UnknownCustomerCreatesNothing(t *testing.T) {
	store := requireDB(t)
	ctx := context.Background()

	n, err := store.UpdateSubscriptionStatus(ctx, stripedb.SubscriptionUpdate{
		StripeCustomerID:     "db-test-cus-tx",
		StripeSubscriptionID: "sub_x",
		Status:               stripedb.StatusActive,
		UpdatedAt:            time.Now(),
		EventCreated:         1,
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	exists, err := store.CustomerExists(ctx, "db-test-cus-tx")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.GetSubscription(ctx, "db-test-cus-tx")
	assert.ErrorIs(t, err, stripedb.ErrNotFound)
}

func TestUpdateSubscriptionStatus_SkipsOlderEvent(t *testing.T) {
	store := requireDB(t)
	ctx := context.Background()
	insertCustomer(t, "db-test-cus-stale")

	update := func(status stripedb.Status, created int64) int64 {
		n, err := store.UpdateSubscriptionStatus(ctx, stripedb.SubscriptionUpdate{
			StripeCustomerID:     "db-test-cus-stale",
			StripeSubscriptionID: "sub_s",
			Status:               status,
			UpdatedAt:            time.Now(),
			EventCreated:         created,
		})
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, int64(1), update(stripedb.StatusActive, 200))
	// Redelivery of the same event is applied again.
	assert.Equal(t, int64(1), update(stripedb.StatusActive, 200))
	// An older event is not.
	assert.Zero(t, update(stripedb.StatusCanceled, 150))

	sub, err := store.GetSubscription(ctx, "db-test-cus-stale")
	require.NoError(t, err)
	assert.Equal(t, stripedb.StatusActive, sub.Status)
	assert.Equal(t, int64(200), sub.LastEventCreated)

	exists, err := store.CustomerExists(ctx, "db-test-cus-stale")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateSubscriptionStatus_RejectsStatusOutsideEnum(t *testing.T) {
	store := requireDB(t)
	insertCustomer(t, "db-test-cus-1")

	_, err := store.UpdateSubscriptionStatus(context.Background(), stripedb.SubscriptionUpdate{
		StripeCustomerID: "db-test-cus-1",
		Status:           stripedb.Status("trialing"),
		UpdatedAt:        time.Now(),
	})
	assert.Error(t, err)
	assert.False(t, stripedb.IsTransient(err))
}

func TestUpdateSubscriptionStatus_CanceledContext(t *testing.T) {
	store := requireDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.UpdateSubscriptionStatus(ctx, stripedb.SubscriptionUpdate{StripeCustomerID: "db-test-cus-1"})
	assert.Error(t, err)
}

func TestLogStore(t *testing.T) {
	store := stripedb.NewLogStore(nil)
	ctx := context.Background()

	n, err := store.UpdateSubscriptionStatus(ctx, stripedb.SubscriptionUpdate{StripeCustomerID: "cus_any", Status: stripedb.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	exists, err := store.CustomerExists(ctx, "cus_any")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.GetSubscription(ctx, "cus_any")
	assert.ErrorIs(t, err, stripedb.ErrNotFound)
}
