package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- IDENTITY ----------------

// GetGuestByToken → the single guest owning an access token
func (d *DB) GetGuestByToken(ctx context.Context, token string) (*models.Guest, error) {
	var guest models.Guest
	err := d.Bun.NewSelect().
		Model(&guest).
		Where("access_token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// GetGuestByRef → the single guest owning a booking reference
func (d *DB) GetGuestByRef(ctx context.Context, ref string) (*models.Guest, error) {
	var guest models.Guest
	err := d.Bun.NewSelect().
		Model(&guest).
		Where("booking_ref = ?", ref).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (d *DB) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
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

func (d *DB) GetLabel(ctx context.Context, id int64) (*models.Label, error) {
	var label models.Label
	err := d.Bun.NewSelect().
		Model(&label).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &label, nil
}

func (d *DB) GetPerk(ctx context.Context, id int64) (*models.Perk, error) {
	var perk models.Perk
	err := d.Bun.NewSelect().
		Model(&perk).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &perk, nil
}

func (d *DB) GetFamily(ctx context.Context, guestID int64) ([]models.GuestFamily, error) {
	family := []models.GuestFamily{}
	err := d.Bun.NewSelect().
		Model(&family).
		Where("guest_id = ?", guestID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return family, nil
}

// ---------------- ENTITLEMENTS ----------------

// GetEntitledPerks → enabled perks of one label, joined through label_perks
func (d *DB) GetEntitledPerks(ctx context.Context, labelID int64) ([]models.EntitledPerk, error) {
	perks := []models.EntitledPerk{}
	err := d.Bun.NewSelect().
		TableExpr("label_perks AS lp").
		ColumnExpr("p.id, p.event_id, p.name, p.description, p.type").
		ColumnExpr("lp.is_enabled, lp.expense_handled_by_client").
		Join("JOIN perks AS p ON p.id = lp.perk_id").
		Where("lp.label_id = ?", labelID).
		Where("lp.is_enabled = ?", true).
		OrderExpr("p.id ASC").
		Scan(ctx, &perks)
	if err != nil {
		return nil, err
	}
	return perks, nil
}

// ---------------- RSVP ----------------

// ConfirmRSVP sets the guest confirmed and replaces the whole family set in
// one transaction. The seat ceiling is re-checked by the UPDATE itself.
func (d *DB) ConfirmRSVP(ctx context.Context, guestID int64, seats int, family []models.GuestFamily) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Guest)(nil)).
			Set("status = ?", models.GuestStatusConfirmed).
			Set("confirmed_seats = ?", seats).
			Where("id = ?", guestID).
			Where("allocated_seats >= ?", seats).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return apperr.CapacityExceeded("confirmed seats exceed allocation")
		}

		if _, err := tx.NewDelete().
			Model((*models.GuestFamily)(nil)).
			Where("guest_id = ?", guestID).
			Exec(ctx); err != nil {
			return err
		}

		if len(family) == 0 {
			return nil
		}
		for i := range family {
			family[i].ID = 0
			family[i].GuestID = guestID
		}
		_, err = tx.NewInsert().Model(&family).Exec(ctx)
		return err
	})
}

// DeleteGuestCascade removes a guest and every dependent row. Attending
// itinerary registrations give their seat back first so attendee counters
// stay equal to the number of attending rows.
func (d *DB) DeleteGuestCascade(ctx context.Context, guestID int64) (bool, error) {
	var removed bool
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var attending []int64
		if err := tx.NewSelect().
			Model((*models.GuestItinerary)(nil)).
			Column("itinerary_event_id").
			Where("guest_id = ?", guestID).
			Where("status = ?", models.ItineraryStatusAttending).
			Scan(ctx, &attending); err != nil {
			return err
		}

		if len(attending) > 0 {
			if _, err := tx.NewUpdate().
				Model((*models.ItineraryEvent)(nil)).
				Set("current_attendees = current_attendees - 1").
				Where("id IN (?)", bun.In(attending)).
				Where("current_attendees > 0").
				Exec(ctx); err != nil {
				return err
			}
		}

		dependents := []interface{}{
			(*models.GuestItinerary)(nil),
			(*models.GuestFamily)(nil),
			(*models.GuestRequest)(nil),
		}
		for _, m := range dependents {
			if _, err := tx.NewDelete().Model(m).Where("guest_id = ?", guestID).Exec(ctx); err != nil {
				return err
			}
		}

		res, err := tx.NewDelete().
			Model((*models.Guest)(nil)).
			Where("id = ?", guestID).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = n > 0
		return nil
	})
	return removed, err
}

// ---------------- SELF-SERVICE ----------------

func (d *DB) UpdateBleisure(ctx context.Context, guestID int64, checkIn, checkOut *time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Guest)(nil)).
		Set("extended_check_in = ?", checkIn).
		Set("extended_check_out = ?", checkOut).
		Where("id = ?", guestID).
		Exec(ctx)
	return err
}

func (d *DB) UpdateIDVerification(ctx context.Context, guestID int64, documentURL, verifiedName, status string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Guest)(nil)).
		Set("id_document_url = ?", documentURL).
		Set("id_verified_name = ?", verifiedName).
		Set("id_verification_status = ?", status).
		Where("id = ?", guestID).
		Exec(ctx)
	return err
}

// UpdateSelfManagement writes only the flags that were supplied.
func (d *DB) UpdateSelfManagement(ctx context.Context, guestID int64, flights, hotel *bool) error {
	if flights == nil && hotel == nil {
		return nil
	}
	q := d.Bun.NewUpdate().
		Model((*models.Guest)(nil)).
		Where("id = ?", guestID)
	if flights != nil {
		q = q.Set("self_manage_flights = ?", *flights)
	}
	if hotel != nil {
		q = q.Set("self_manage_hotel = ?", *hotel)
	}
	_, err := q.Exec(ctx)
	return err
}

func (d *DB) CreateRequest(ctx context.Context, request *models.GuestRequest) error {
	_, err := d.Bun.NewInsert().Model(request).Exec(ctx)
	return err
}
