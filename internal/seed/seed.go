// Package seed loads the demo wedding used for local development and demos.
package seed

import (
	"context"
	"fmt"
	"time"

	"ms-guests/internal/models"
	planningdb "ms-guests/internal/planning/db"
	planning "ms-guests/internal/planning/service"
	"ms-guests/internal/utils"
)

const DemoBookingRef = "SMITH24"

type Result struct {
	Event   *models.Event
	Labels  []*models.Label
	Perks   []*models.Perk
	Guest   *models.Guest
	Skipped bool
}

func boolPtr(v bool) *bool { return &v }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Demo creates the demo event unless the store already holds events.
func Demo(ctx context.Context, svc *planning.PlanningService, store *planningdb.DB) (*Result, error) {
	existing, err := store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if len(existing) > 0 {
		return &Result{Skipped: true}, nil
	}

	published := true
	event, err := svc.CreateEvent(ctx, models.EventInput{
		Name:        "Smith & Jones Wedding",
		Date:        date("2024-08-15"),
		Location:    "Grand Hotel, Amalfi Coast",
		Description: "A beautiful celebration of love.",
		IsPublished: &published,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	res := &Result{Event: event}

	vip, err := svc.CreateLabel(ctx, event.ID, models.LabelInput{Name: "VIP", Description: "Close family and friends"})
	if err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	friend, err := svc.CreateLabel(ctx, event.ID, models.LabelInput{Name: "Friend", Description: "Friends of the couple"})
	if err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	res.Labels = []*models.Label{vip, friend}

	transport, err := svc.CreatePerk(ctx, event.ID, models.PerkInput{
		Name: "Airport Pickup", Description: "Private car from NAP airport", Type: models.PerkTypeTransport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create perk: %w", err)
	}
	spa, err := svc.CreatePerk(ctx, event.ID, models.PerkInput{
		Name: "Spa Access", Description: "Full access to hotel spa", Type: models.PerkTypeActivity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create perk: %w", err)
	}
	res.Perks = []*models.Perk{transport, spa}

	// VIP: both perks on the client. Friend: pickup on the client, spa on the guest.
	matrix := []struct {
		label  *models.Label
		perk   *models.Perk
		client bool
	}{
		{vip, transport, true},
		{vip, spa, true},
		{friend, transport, true},
		{friend, spa, false},
	}
	for _, m := range matrix {
		if _, err := svc.UpsertLabelPerk(ctx, m.label.ID, models.LabelPerkInput{
			PerkID:                 m.perk.ID,
			IsEnabled:              boolPtr(true),
			ExpenseHandledByClient: boolPtr(m.client),
		}); err != nil {
			return nil, fmt.Errorf("failed to set entitlement %s/%s: %w", m.label.Name, m.perk.Name, err)
		}
	}

	arrival, departure := date("2024-08-14"), date("2024-08-16")
	alice := &models.Guest{
		EventID:              event.ID,
		LabelID:              &vip.ID,
		Name:                 "Alice Smith",
		Email:                "alice@example.com",
		BookingRef:           DemoBookingRef,
		AccessToken:          utils.GenerateAccessToken(),
		Status:               models.GuestStatusConfirmed,
		AllocatedSeats:       1,
		ConfirmedSeats:       1,
		ArrivalDate:          &arrival,
		DepartureDate:        &departure,
		TravelMode:           "Flight",
		IDVerificationStatus: models.IDVerificationPending,
	}
	if err := store.CreateGuest(ctx, alice); err != nil {
		return nil, fmt.Errorf("failed to create demo guest: %w", err)
	}
	res.Guest = alice
	return res, nil
}
