// Package dbtest opens throwaway in-memory SQLite stores for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-guests/internal/database"
	"ms-guests/internal/models"
)

// New returns an isolated in-memory store with the full schema created.
func New(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	bunDB, err := database.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })

	if err := database.CreateSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return bunDB
}

// Fixture is a small event with two labels and two perks.
type Fixture struct {
	Event  *models.Event
	VIP    *models.Label
	Friend *models.Label
	Pickup *models.Perk
	Spa    *models.Perk
}

// Seed inserts the fixture event, labels, perks and entitlement matrix:
// VIP gets pickup (client pays) and spa (guest pays); Friend gets pickup
// only, with spa present but disabled.
func Seed(t *testing.T, db *bun.DB) *Fixture {
	t.Helper()
	ctx := context.Background()

	f := &Fixture{
		Event: &models.Event{
			Name:      "Smith & Jones Wedding",
			Date:      time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC),
			Location:  "Lake Como",
			EventCode: "EVT-" + uuid.NewString()[:6],
		},
	}
	mustInsert(t, db, f.Event)

	f.VIP = &models.Label{EventID: f.Event.ID, Name: "VIP"}
	f.Friend = &models.Label{EventID: f.Event.ID, Name: "Friend"}
	mustInsert(t, db, f.VIP)
	mustInsert(t, db, f.Friend)

	f.Pickup = &models.Perk{EventID: f.Event.ID, Name: "Airport Pickup", Type: models.PerkTypeTransport}
	f.Spa = &models.Perk{EventID: f.Event.ID, Name: "Spa Access", Type: models.PerkTypeActivity}
	mustInsert(t, db, f.Pickup)
	mustInsert(t, db, f.Spa)

	matrix := []models.LabelPerk{
		{LabelID: f.VIP.ID, PerkID: f.Pickup.ID, IsEnabled: true, ExpenseHandledByClient: true},
		{LabelID: f.VIP.ID, PerkID: f.Spa.ID, IsEnabled: true, ExpenseHandledByClient: false},
		{LabelID: f.Friend.ID, PerkID: f.Pickup.ID, IsEnabled: true, ExpenseHandledByClient: true},
		{LabelID: f.Friend.ID, PerkID: f.Spa.ID, IsEnabled: false},
	}
	if _, err := db.NewInsert().Model(&matrix).Exec(ctx); err != nil {
		t.Fatalf("Failed to insert label perks: %v", err)
	}
	return f
}

// Guest inserts a pending guest with one allocated seat unless the caller
// overrides fields in mutate.
func (f *Fixture) Guest(t *testing.T, db *bun.DB, name string, label *models.Label, mutate ...func(*models.Guest)) *models.Guest {
	t.Helper()

	g := &models.Guest{
		EventID:              f.Event.ID,
		Name:                 name,
		Email:                fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		BookingRef:           "BOOK-" + uuid.NewString()[:8],
		AccessToken:          uuid.NewString(),
		Status:               models.GuestStatusPending,
		AllocatedSeats:       1,
		IDVerificationStatus: models.IDVerificationPending,
	}
	if label != nil {
		g.LabelID = &label.ID
	}
	for _, m := range mutate {
		m(g)
	}
	mustInsert(t, db, g)
	return g
}

func mustInsert(t *testing.T, db *bun.DB, model interface{}) {
	t.Helper()
	if _, err := db.NewInsert().Model(model).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to insert %T: %v", model, err)
	}
}
