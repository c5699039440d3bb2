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

	"ms-guests/internal/apperr"
	"ms-guests/internal/database/dbtest"
	"ms-guests/internal/itinerary/db"
	"ms-guests/internal/models"
)

func setupTestDB(t *testing.T) (*db.DB, *dbtest.Fixture) {
	bunDB := dbtest.New(t)
	return &db.DB{Bun: bunDB}, dbtest.Seed(t, bunDB)
}

func createActivity(t *testing.T, itDB *db.DB, eventID int64, title string, capacity *int) *models.ItineraryEvent {
	t.Helper()
	start := time.Date(2026, 6, 19, 10, 0, 0, 0, time.UTC)
	activity := &models.ItineraryEvent{
		EventID:   eventID,
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Capacity:  capacity,
	}
	require.NoError(t, itDB.CreateItineraryEvent(context.Background(), activity))
	return activity
}

func attendees(t *testing.T, itDB *db.DB, id int64) int {
	t.Helper()
	activity, err := itDB.GetItineraryEvent(context.Background(), id)
	require.NoError(t, err)
	return activity.CurrentAttendees
}

func TestRegisterLastSeat(t *testing.T) {
	itDB, f := setupTestDB(t)
	ctx := context.Background()
	one := 1
	tour := createActivity(t, itDB, f.Event.ID, "Boat Tour", &one)
	a := f.Guest(t, itDB.Bun, "Guest A", nil)
	b := f.Guest(t, itDB.Bun, "Guest B", nil)

	already, count, err := itDB.Register(ctx, a.ID, tour.ID)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, 1, count)

	_, _, err = itDB.Register(ctx, b.ID, tour.ID)
	assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)

	// the failed attempt left no join row behind
	n, err := itDB.Bun.NewSelect().Model((*models.GuestItinerary)(nil)).Where("guest_id = ?", b.ID).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, attendees(t, itDB, tour.ID))
}

func TestZeroCapacityIsClosed(t *testing.T) {
	itDB, f := setupTestDB(t)
	ctx := context.Background()
	zero := 0
	closed := createActivity(t, itDB, f.Event.ID, "Private Dinner", &zero)
	open := createActivity(t, itDB, f.Event.ID, "Welcome Drinks", nil)
	g := f.Guest(t, itDB.Bun, "Guest A", nil)

	_, _, err := itDB.Register(ctx, g.ID, closed.ID)
	assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)
	assert.Equal(t, 0, attendees(t, itDB, closed.ID))

	_, count, err := itDB.Register(ctx, g.ID, open.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterTwiceDoesNotDoubleCount(t *testing.T) {
	itDB, f := setupTestDB(t)
	ctx := context.Background()
	dinner := createActivity(t, itDB, f.Event.ID, "Welcome Dinner", nil)
	a := f.Guest(t, itDB.Bun, "Guest A", nil)

	_, _, err := itDB.Register(ctx, a.ID, dinner.ID)
	require.NoError(t, err)

	already, count, err := itDB.Register(ctx, a.ID, dinner.ID)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, 1, count)
}

func TestRegisterUpgradesDeclinedRow(t *testing.T) {
	itDB, f := setupTestDB(t)
	ctx := context.Background()
	dinner := createActivity(t, itDB, f.Event.ID, "Welcome Dinner", nil)
	a := f.Guest(t, itDB.Bun, "Guest A", nil)

	_, err := itDB.Bun.NewInsert().Model(&models.GuestItinerary{
		GuestID: a.ID, ItineraryEventID: dinner.ID, Status: models.ItineraryStatusDeclined,
	}).Exec(ctx)
	require.NoError(t, err)

	already, count, err := itDB.Register(ctx, a.ID, dinner.ID)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, 1, count)

	attending, err := itDB.ListAttending(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, attending, 1)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	itDB, f := setupTestDB(t)
	ctx := context.Background()
	dinner := createActivity(t, itDB, f.Event.ID, "Welcome Dinner", nil)
	a := f.Guest(t, itDB.Bun, "Guest A", nil)
	b := f.Guest(t, itDB.Bun, "Guest B", nil)

	_, _, err := itDB.Register(ctx, a.ID, dinner.ID)
	require.NoError(t, err)
	_, _, err = itDB.Register(ctx, b.ID, dinner.ID)
	require.NoError(t, err)

	removed, err := itDB.Unregister(ctx, a.ID, dinner.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, attendees(t, itDB, dinner.ID))

	removed, err = itDB.Unregister(ctx, a.ID, dinner.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 1, attendees(t, itDB, dinner.ID))
}

func TestConcurrentRegistrationNeverExceedsCapacity(t *testing.T) {
	itDB, f := setupTestDB(t)
	ctx := context.Background()
	capacity := 5
	spa := createActivity(t, itDB, f.Event.ID, "Spa Morning", &capacity)

	const guestsCount = 20
	ids := make([]int64, guestsCount)
	for i := range ids {
		ids[i] = f.Guest(t, itDB.Bun, fmt.Sprintf("Guest %d", i), nil).ID
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
		other    []error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(guestID int64) {
			defer wg.Done()
			_, _, err := itDB.Register(ctx, guestID, spa.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrCapacityExceeded):
				full++
			default:
				other = append(other, err)
			}
		}(id)
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, capacity, ok)
	assert.Equal(t, guestsCount-capacity, full)
	assert.Equal(t, capacity, attendees(t, itDB, spa.ID))

	rows, err := itDB.Bun.NewSelect().
		Model((*models.GuestItinerary)(nil)).
		Where("itinerary_event_id = ?", spa.ID).
		Where("status = ?", models.ItineraryStatusAttending).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, capacity, rows)
}
