package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-guests/internal/models"
)

// JoinWaitlist marks the guest as waitlisted with the given tier and returns
// its 1-based position: guests in a better tier, plus guests in the same
// tier that were created earlier, plus one.
//
// Both counts run in the same transaction as the update, but concurrent
// joins may still observe each other partially; the position is advisory.
func (d *DB) JoinWaitlist(ctx context.Context, guest *models.Guest, priority int) (int, error) {
	var position int
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*models.Guest)(nil)).
			Set("is_on_waitlist = ?", true).
			Set("waitlist_priority = ?", priority).
			Where("id = ?", guest.ID).
			Exec(ctx); err != nil {
			return err
		}

		better, err := tx.NewSelect().
			Model((*models.Guest)(nil)).
			Where("event_id = ?", guest.EventID).
			Where("is_on_waitlist = ?", true).
			Where("waitlist_priority < ?", priority).
			Count(ctx)
		if err != nil {
			return err
		}

		earlier, err := tx.NewSelect().
			Model((*models.Guest)(nil)).
			Where("event_id = ?", guest.EventID).
			Where("is_on_waitlist = ?", true).
			Where("waitlist_priority = ?", priority).
			Where("id < ?", guest.ID).
			Count(ctx)
		if err != nil {
			return err
		}

		position = better + earlier + 1
		return nil
	})
	return position, err
}

// ListWaitlist → waitlisted guests of an event in queue order
func (d *DB) ListWaitlist(ctx context.Context, eventID int64) ([]models.Guest, error) {
	guests := []models.Guest{}
	err := d.Bun.NewSelect().
		Model(&guests).
		Where("event_id = ?", eventID).
		Where("is_on_waitlist = ?", true).
		Order("waitlist_priority ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return guests, nil
}
