package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-guests/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func getByID[T any](ctx context.Context, db bun.IDB, id int64) (*T, error) {
	var row T
	err := db.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ---------------- EVENTS ----------------

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Order("date ASC", "id ASC").
		Scan(ctx)
	return events, err
}

func (d *DB) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return getByID[models.Event](ctx, d.Bun, id)
}

func (d *DB) EventCodeExists(ctx context.Context, code string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("event_code = ?", code).
		Exists(ctx)
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column("name", "date", "location", "description", "is_published").
		WherePK().
		Exec(ctx)
	return err
}

// ---------------- LABELS ----------------

func (d *DB) ListLabels(ctx context.Context, eventID int64) ([]models.Label, error) {
	labels := []models.Label{}
	err := d.Bun.NewSelect().
		Model(&labels).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Scan(ctx)
	return labels, err
}

func (d *DB) GetLabel(ctx context.Context, id int64) (*models.Label, error) {
	return getByID[models.Label](ctx, d.Bun, id)
}

func (d *DB) CreateLabel(ctx context.Context, label *models.Label) error {
	_, err := d.Bun.NewInsert().Model(label).Exec(ctx)
	return err
}

func (d *DB) UpdateLabel(ctx context.Context, label *models.Label) error {
	_, err := d.Bun.NewUpdate().
		Model(label).
		Column("name", "description").
		WherePK().
		Exec(ctx)
	return err
}

// ---------------- PERKS ----------------

func (d *DB) ListPerks(ctx context.Context, eventID int64) ([]models.Perk, error) {
	perks := []models.Perk{}
	err := d.Bun.NewSelect().
		Model(&perks).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Scan(ctx)
	return perks, err
}

func (d *DB) GetPerk(ctx context.Context, id int64) (*models.Perk, error) {
	return getByID[models.Perk](ctx, d.Bun, id)
}

func (d *DB) CreatePerk(ctx context.Context, perk *models.Perk) error {
	_, err := d.Bun.NewInsert().Model(perk).Exec(ctx)
	return err
}

func (d *DB) UpdatePerk(ctx context.Context, perk *models.Perk) error {
	_, err := d.Bun.NewUpdate().
		Model(perk).
		Column("name", "description", "type").
		WherePK().
		Exec(ctx)
	return err
}

// ---------------- ENTITLEMENT MATRIX ----------------

// ListLabelPerks → every matrix row of a label, disabled ones included
func (d *DB) ListLabelPerks(ctx context.Context, labelID int64) ([]models.LabelPerk, error) {
	rows := []models.LabelPerk{}
	err := d.Bun.NewSelect().
		Model(&rows).
		Relation("Perk").
		Where("lp.label_id = ?", labelID).
		Order("lp.perk_id ASC").
		Scan(ctx)
	return rows, err
}

func (d *DB) GetLabelPerk(ctx context.Context, labelID, perkID int64) (*models.LabelPerk, error) {
	var row models.LabelPerk
	err := d.Bun.NewSelect().
		Model(&row).
		Where("label_id = ?", labelID).
		Where("perk_id = ?", perkID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertLabelPerk creates or overwrites the (label, perk) edge.
func (d *DB) UpsertLabelPerk(ctx context.Context, row *models.LabelPerk) error {
	_, err := d.Bun.NewInsert().
		Model(row).
		On("CONFLICT (label_id, perk_id) DO UPDATE").
		Set("is_enabled = EXCLUDED.is_enabled").
		Set("expense_handled_by_client = EXCLUDED.expense_handled_by_client").
		Returning("NULL").
		Exec(ctx)
	return err
}

// ---------------- GUESTS ----------------

func (d *DB) ListGuests(ctx context.Context, eventID int64) ([]models.Guest, error) {
	guests := []models.Guest{}
	err := d.Bun.NewSelect().
		Model(&guests).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Scan(ctx)
	return guests, err
}

func (d *DB) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	return getByID[models.Guest](ctx, d.Bun, id)
}

// CredentialsTaken reports whether an access token or booking ref is already
// assigned.
func (d *DB) CredentialsTaken(ctx context.Context, accessToken, bookingRef string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Guest)(nil)).
		WhereOr("access_token = ?", accessToken).
		WhereOr("booking_ref = ?", bookingRef).
		Exists(ctx)
}

func (d *DB) CreateGuest(ctx context.Context, guest *models.Guest) error {
	_, err := d.Bun.NewInsert().Model(guest).Exec(ctx)
	return err
}

// UpdateGuest writes the agent-owned columns. Guest self-service fields and
// credentials are left alone.
func (d *DB) UpdateGuest(ctx context.Context, guest *models.Guest) error {
	_, err := d.Bun.NewUpdate().
		Model(guest).
		Column("label_id", "name", "email", "phone", "category", "allocated_seats",
			"arrival_date", "departure_date", "travel_mode",
			"host_covered_check_in", "host_covered_check_out").
		WherePK().
		Exec(ctx)
	return err
}

// ---------------- FAMILY ----------------

func (d *DB) ListFamily(ctx context.Context, guestID int64) ([]models.GuestFamily, error) {
	family := []models.GuestFamily{}
	err := d.Bun.NewSelect().
		Model(&family).
		Where("guest_id = ?", guestID).
		Order("id ASC").
		Scan(ctx)
	return family, err
}

func (d *DB) CountFamily(ctx context.Context, guestID int64) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.GuestFamily)(nil)).
		Where("guest_id = ?", guestID).
		Count(ctx)
}

func (d *DB) CreateFamilyMember(ctx context.Context, member *models.GuestFamily) error {
	_, err := d.Bun.NewInsert().Model(member).Exec(ctx)
	return err
}

// ---------------- REQUESTS ----------------

// ListRequestsByEvent → requests of every guest of an event, newest first,
// with guest and perk attached
func (d *DB) ListRequestsByEvent(ctx context.Context, eventID int64) ([]models.GuestRequest, error) {
	requests := []models.GuestRequest{}
	err := d.Bun.NewSelect().
		Model(&requests).
		Relation("Guest").
		Relation("Perk").
		Where("guest.event_id = ?", eventID).
		Order("gr.created_at DESC", "gr.id DESC").
		Scan(ctx)
	return requests, err
}

func (d *DB) GetRequest(ctx context.Context, id int64) (*models.GuestRequest, error) {
	return getByID[models.GuestRequest](ctx, d.Bun, id)
}

func (d *DB) CreateRequest(ctx context.Context, request *models.GuestRequest) error {
	_, err := d.Bun.NewInsert().Model(request).Exec(ctx)
	return err
}

func (d *DB) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.GuestRequest)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
