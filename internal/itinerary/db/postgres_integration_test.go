//go:build integration

package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"

	"ms-guests/internal/apperr"
	"ms-guests/internal/config"
	"ms-guests/internal/database"
	"ms-guests/internal/database/dbtest"
	"ms-guests/internal/database/migrations"
	guestdb "ms-guests/internal/guests/db"
	"ms-guests/internal/itinerary/db"
	"ms-guests/internal/logger"
)

// startPostgres runs a throwaway PostgreSQL with the SQL migrations applied.
func startPostgres(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "guests",
				"POSTGRES_PASSWORD": "guests",
				"POSTGRES_DB":       "guests",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	log := logger.NewDiscard()
	bunDB, err := database.Open(config.DatabaseConfig{
		Driver:       database.DriverPostgres,
		DSN:          fmt.Sprintf("postgres://guests:guests@%s:%s/guests?sslmode=disable", host, port.Port()),
		MaxOpenConns: 20,
		MaxIdleConns: 20,
		MaxLifetime:  time.Minute,
		ConnRetries:  5,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: "../../../migrations", AutoMigrate: true}, log)
	require.NoError(t, runner.Initialize())
	require.NoError(t, runner.RunMigrations())
	require.NoError(t, runner.Close())
	return bunDB
}

func TestPostgresConcurrentRegistration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}
	bunDB := startPostgres(t)
	f := dbtest.Seed(t, bunDB)
	itDB := &db.DB{Bun: bunDB}
	ctx := context.Background()

	capacity := 5
	tour := createActivity(t, itDB, f.Event.ID, "Boat Tour", &capacity)

	const contenders = 30
	guestIDs := make([]int64, contenders)
	for i := range guestIDs {
		guestIDs[i] = f.Guest(t, bunDB, fmt.Sprintf("Guest %d", i), f.Friend).ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
	)
	for _, id := range guestIDs {
		wg.Add(1)
		go func(guestID int64) {
			defer wg.Done()
			_, _, err := itDB.Register(ctx, guestID, tour.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrCapacityExceeded):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, contenders-capacity, full)
	assert.Equal(t, capacity, attendees(t, itDB, tour.ID))
}

func TestPostgresDeclineCascade(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}
	bunDB := startPostgres(t)
	f := dbtest.Seed(t, bunDB)
	itDB := &db.DB{Bun: bunDB}
	ctx := context.Background()

	tour := createActivity(t, itDB, f.Event.ID, "Boat Tour", nil)
	guest := f.Guest(t, bunDB, "Alice", f.VIP)
	_, _, err := itDB.Register(ctx, guest.ID, tour.ID)
	require.NoError(t, err)

	removed, err := (&guestdb.DB{Bun: bunDB}).DeleteGuestCascade(ctx, guest.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, attendees(t, itDB, tour.ID))
}
