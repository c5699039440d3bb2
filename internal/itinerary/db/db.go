package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetItineraryEvent(ctx context.Context, id int64) (*models.ItineraryEvent, error) {
	var event models.ItineraryEvent
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListItineraryEvents → schedule of one event, earliest first
func (d *DB) ListItineraryEvents(ctx context.Context, eventID int64) ([]models.ItineraryEvent, error) {
	events := []models.ItineraryEvent{}
	err := d.Bun.NewSelect().
		Model(&events).
		Where("event_id = ?", eventID).
		Order("start_time ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListAttending → itinerary events the guest currently attends
func (d *DB) ListAttending(ctx context.Context, guestID int64) ([]models.ItineraryEvent, error) {
	events := []models.ItineraryEvent{}
	err := d.Bun.NewSelect().
		Model(&events).
		Join("JOIN guest_itinerary AS gi ON gi.itinerary_event_id = ie.id").
		Where("gi.guest_id = ?", guestID).
		Where("gi.status = ?", models.ItineraryStatusAttending).
		Order("ie.start_time ASC", "ie.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) CreateItineraryEvent(ctx context.Context, event *models.ItineraryEvent) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

// UpdateItineraryEvent writes the agent-editable columns. The attendee
// counter is never touched here.
func (d *DB) UpdateItineraryEvent(ctx context.Context, event *models.ItineraryEvent) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column("perk_id", "title", "description", "location", "start_time", "end_time", "is_mandatory", "capacity").
		WherePK().
		Exec(ctx)
	return err
}

// Register marks the guest as attending. The join row and the capacity-checked
// increment commit together or not at all; a registration that is already
// attending is reported without touching the counter.
func (d *DB) Register(ctx context.Context, guestID, itineraryEventID int64) (already bool, attendees int, err error) {
	err = d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &models.GuestItinerary{
			GuestID:          guestID,
			ItineraryEventID: itineraryEventID,
			Status:           models.ItineraryStatusAttending,
		}
		res, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (guest_id, itinerary_event_id) DO NOTHING").
			Returning("NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if inserted == 0 {
			var existing models.GuestItinerary
			if err := tx.NewSelect().
				Model(&existing).
				Where("guest_id = ?", guestID).
				Where("itinerary_event_id = ?", itineraryEventID).
				Limit(1).
				Scan(ctx); err != nil {
				return err
			}
			if existing.Status == models.ItineraryStatusAttending {
				already = true
				return tx.NewSelect().
					Model((*models.ItineraryEvent)(nil)).
					Column("current_attendees").
					Where("id = ?", itineraryEventID).
					Scan(ctx, &attendees)
			}
		}

		if err := takeSeat(ctx, tx, itineraryEventID); err != nil {
			return err
		}

		if inserted == 0 {
			if _, err := tx.NewUpdate().
				Model((*models.GuestItinerary)(nil)).
				Set("status = ?", models.ItineraryStatusAttending).
				Where("guest_id = ?", guestID).
				Where("itinerary_event_id = ?", itineraryEventID).
				Exec(ctx); err != nil {
				return err
			}
		}

		return tx.NewSelect().
			Model((*models.ItineraryEvent)(nil)).
			Column("current_attendees").
			Where("id = ?", itineraryEventID).
			Scan(ctx, &attendees)
	})
	return already, attendees, err
}

// takeSeat increments the attendee counter only while it is below capacity.
// The check and the increment are one statement, so concurrent callers can
// never push the counter past the limit. A nil capacity is unlimited; zero
// means no seats are open.
func takeSeat(ctx context.Context, tx bun.Tx, itineraryEventID int64) error {
	res, err := tx.NewUpdate().
		Model((*models.ItineraryEvent)(nil)).
		Set("current_attendees = current_attendees + 1").
		Where("id = ?", itineraryEventID).
		Where("(capacity IS NULL OR current_attendees < capacity)").
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.CapacityExceeded("Event is full")
	}
	return nil
}

// Unregister removes the guest's registration if any. The counter goes down
// only when the removed row was attending, and never below zero.
func (d *DB) Unregister(ctx context.Context, guestID, itineraryEventID int64) (removed bool, err error) {
	err = d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.GuestItinerary)(nil)).
			Where("guest_id = ?", guestID).
			Where("itinerary_event_id = ?", itineraryEventID).
			Where("status = ?", models.ItineraryStatusAttending).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		// non-attending rows carry no seat
		if _, err := tx.NewDelete().
			Model((*models.GuestItinerary)(nil)).
			Where("guest_id = ?", guestID).
			Where("itinerary_event_id = ?", itineraryEventID).
			Exec(ctx); err != nil {
			return err
		}

		if n == 0 {
			return nil
		}
		removed = true
		_, err = tx.NewUpdate().
			Model((*models.ItineraryEvent)(nil)).
			Set("current_attendees = current_attendees - 1").
			Where("id = ?", itineraryEventID).
			Where("current_attendees > 0").
			Exec(ctx)
		return err
	})
	return removed, err
}
