package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-guests/internal/analytics"
	"ms-guests/internal/apperr"
	"ms-guests/internal/database/dbtest"
	"ms-guests/internal/models"
)

func TestEventSummary(t *testing.T) {
	bunDB := dbtest.New(t)
	f := dbtest.Seed(t, bunDB)
	ctx := context.Background()

	alice := f.Guest(t, bunDB, "Alice", f.VIP, func(g *models.Guest) {
		g.Status = models.GuestStatusConfirmed
		g.AllocatedSeats = 3
		g.ConfirmedSeats = 2
		g.IDVerificationStatus = models.IDVerificationVerified
	})
	f.Guest(t, bunDB, "Bob", f.Friend, func(g *models.Guest) {
		priority := 2
		g.IsOnWaitlist = true
		g.WaitlistPriority = &priority
	})
	f.Guest(t, bunDB, "Walk-in", nil)

	requests := []models.GuestRequest{
		{GuestID: alice.ID, Type: "room_upgrade", Status: models.RequestStatusPending},
		{GuestID: alice.ID, Type: "late_checkout", Status: models.RequestStatusApproved},
	}
	_, err := bunDB.NewInsert().Model(&requests).Exec(ctx)
	require.NoError(t, err)

	capacity := 4
	activities := []models.ItineraryEvent{
		{EventID: f.Event.ID, Title: "Boat Tour", StartTime: time.Date(2026, 6, 19, 10, 0, 0, 0, time.UTC),
			EndTime: time.Date(2026, 6, 19, 12, 0, 0, 0, time.UTC), Capacity: &capacity, CurrentAttendees: 1},
		{EventID: f.Event.ID, Title: "Ceremony", StartTime: time.Date(2026, 6, 20, 15, 0, 0, 0, time.UTC),
			EndTime: time.Date(2026, 6, 20, 16, 0, 0, 0, time.UTC), CurrentAttendees: 3},
	}
	_, err = bunDB.NewInsert().Model(&activities).Exec(ctx)
	require.NoError(t, err)

	svc := analytics.NewService(analytics.NewDB(bunDB))
	summary, err := svc.GetEventSummary(ctx, f.Event.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalGuests)
	assert.Equal(t, 1, summary.GuestsByStatus[models.GuestStatusConfirmed])
	assert.Equal(t, 2, summary.GuestsByStatus[models.GuestStatusPending])
	assert.Equal(t, 0, summary.GuestsByStatus[models.GuestStatusDeclined])
	assert.Equal(t, 5, summary.AllocatedSeats)
	assert.Equal(t, 2, summary.ConfirmedSeats)
	assert.Equal(t, 1, summary.WaitlistSize)
	assert.Equal(t, 1, summary.IDVerification[models.IDVerificationVerified])
	assert.Equal(t, 2, summary.IDVerification[models.IDVerificationPending])
	assert.Equal(t, 1, summary.PendingRequests)
	assert.Equal(t, 1, summary.Requests[models.RequestStatusApproved])

	require.Len(t, summary.Labels, 3)
	assert.Equal(t, "VIP", summary.Labels[0].Name)
	assert.Equal(t, 2, summary.Labels[0].ConfirmedSeats)
	assert.Equal(t, "Friend", summary.Labels[1].Name)
	assert.Nil(t, summary.Labels[2].LabelID)

	require.Len(t, summary.Itinerary, 2)
	require.NotNil(t, summary.Itinerary[0].FillRate)
	assert.InDelta(t, 0.25, *summary.Itinerary[0].FillRate, 1e-9)
	assert.Nil(t, summary.Itinerary[1].FillRate)
}

func TestEventSummaryEmptyAndMissing(t *testing.T) {
	bunDB := dbtest.New(t)
	f := dbtest.Seed(t, bunDB)
	svc := analytics.NewService(analytics.NewDB(bunDB))
	ctx := context.Background()

	summary, err := svc.GetEventSummary(ctx, f.Event.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalGuests)
	assert.Empty(t, summary.Labels)
	assert.Empty(t, summary.Itinerary)

	_, err = svc.GetEventSummary(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBatchSummary(t *testing.T) {
	bunDB := dbtest.New(t)
	first := dbtest.Seed(t, bunDB)
	second := dbtest.Seed(t, bunDB)
	ctx := context.Background()

	first.Guest(t, bunDB, "A", first.VIP, func(g *models.Guest) { g.AllocatedSeats = 2 })
	second.Guest(t, bunDB, "B", second.VIP, func(g *models.Guest) {
		g.Status = models.GuestStatusConfirmed
		g.ConfirmedSeats = 1
	})

	svc := analytics.NewService(analytics.NewDB(bunDB))
	batch, err := svc.GetBatchSummary(ctx, []int64{first.Event.ID, second.Event.ID, first.Event.ID})
	require.NoError(t, err)
	assert.Len(t, batch.Events, 2)
	assert.Equal(t, 2, batch.TotalGuests)
	assert.Equal(t, 3, batch.AllocatedSeats)
	assert.Equal(t, 1, batch.ConfirmedSeats)
	assert.Equal(t, 1, batch.GuestsByStatus[models.GuestStatusPending])

	_, err = svc.GetBatchSummary(ctx, []int64{first.Event.ID, 999})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
