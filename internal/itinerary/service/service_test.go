package itinerary_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-guests/internal/apperr"
	"ms-guests/internal/database/dbtest"
	guestdb "ms-guests/internal/guests/db"
	"ms-guests/internal/itinerary/db"
	itinerary "ms-guests/internal/itinerary/service"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
)

type fixture struct {
	*dbtest.Fixture
	svc *itinerary.ItineraryService
	db  *db.DB
}

func setup(t *testing.T) *fixture {
	bunDB := dbtest.New(t)
	itDB := &db.DB{Bun: bunDB}
	return &fixture{
		Fixture: dbtest.Seed(t, bunDB),
		svc:     itinerary.NewItineraryService(itDB, &guestdb.DB{Bun: bunDB}, nil, logger.NewDiscard()),
		db:      itDB,
	}
}

func at(hour int) time.Time {
	return time.Date(2026, 6, 19, hour, 0, 0, 0, time.UTC)
}

func (f *fixture) activity(t *testing.T, title string, from, to int, capacity *int) *models.ItineraryEvent {
	t.Helper()
	e, err := f.svc.Create(context.Background(), f.Event.ID, models.ItineraryEventInput{
		Title:     title,
		StartTime: at(from),
		EndTime:   at(to),
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return e
}

func TestRegisterReportsConflictsWithoutBlocking(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	guest := f.Guest(t, f.db.Bun, "Alice Smith", f.VIP)

	brunch := f.activity(t, "Brunch", 10, 12, nil)
	tour := f.activity(t, "Boat Tour", 11, 13, nil)
	dinner := f.activity(t, "Dinner", 12, 14, nil)

	res, err := f.svc.Register(ctx, guest, brunch.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)

	// touching endpoints are not a conflict
	res, err = f.svc.Register(ctx, guest, dinner.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)

	res, err = f.svc.Register(ctx, guest, tour.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Conflicts, 2)
	assert.Equal(t, "Brunch", res.Conflicts[0].Title)

	items, err := f.svc.GuestItinerary(ctx, guest)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.True(t, item.Registered, item.Title)
		assert.True(t, item.HasConflict, item.Title)
	}
}

func TestRegisterCapacityScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	one := 1
	tour := f.activity(t, "Boat Tour", 10, 12, &one)
	a := f.Guest(t, f.db.Bun, "Guest A", nil)
	b := f.Guest(t, f.db.Bun, "Guest B", nil)

	res, err := f.svc.Register(ctx, a, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentAttendees)

	_, err = f.svc.Register(ctx, b, tour.ID)
	assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)
	assert.Equal(t, 400, apperr.HTTPStatus(err))

	again, err := f.svc.Register(ctx, a, tour.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyRegistered)
	assert.Equal(t, 1, again.CurrentAttendees)

	require.NoError(t, f.svc.Unregister(ctx, a, tour.ID))
	require.NoError(t, f.svc.Unregister(ctx, a, tour.ID))

	res, err = f.svc.Register(ctx, b, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentAttendees)
}

func TestRegisterForeignOrMissingEvent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	guest := f.Guest(t, f.db.Bun, "Alice Smith", nil)

	_, err := f.svc.Register(ctx, guest, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	other := &models.Event{Name: "Other", Date: at(0), Location: "Elsewhere", EventCode: "EVT-OTHER1"}
	_, err = f.db.Bun.NewInsert().Model(other).Exec(ctx)
	require.NoError(t, err)
	foreign, err := f.svc.Create(ctx, other.ID, models.ItineraryEventInput{Title: "Gala", StartTime: at(18), EndTime: at(23)})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, guest, foreign.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAgentEditValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.Event.ID, models.ItineraryEventInput{Title: "Backwards", StartTime: at(12), EndTime: at(10)})
	assert.Equal(t, "endTime", apperr.FieldOf(err))

	_, err = f.svc.Create(ctx, f.Event.ID, models.ItineraryEventInput{StartTime: at(10), EndTime: at(12)})
	assert.Equal(t, "title", apperr.FieldOf(err))

	two := 2
	tour := f.activity(t, "Boat Tour", 10, 12, &two)
	a := f.Guest(t, f.db.Bun, "Guest A", nil)
	b := f.Guest(t, f.db.Bun, "Guest B", nil)
	_, err = f.svc.Register(ctx, a, tour.ID)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, b, tour.ID)
	require.NoError(t, err)

	one := 1
	_, err = f.svc.Update(ctx, tour.ID, models.ItineraryEventInput{Title: "Boat Tour", StartTime: at(10), EndTime: at(12), Capacity: &one})
	assert.Equal(t, "capacity", apperr.FieldOf(err))

	three := 3
	updated, err := f.svc.Update(ctx, tour.ID, models.ItineraryEventInput{Title: "Sunset Boat Tour", StartTime: at(17), EndTime: at(19), Capacity: &three, PerkID: &f.Spa.ID})
	require.NoError(t, err)
	assert.Equal(t, "Sunset Boat Tour", updated.Title)
	assert.Equal(t, 2, updated.CurrentAttendees)

	stored, err := f.db.GetItineraryEvent(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *stored.Capacity)
	assert.Equal(t, 2, stored.CurrentAttendees)
}
