package analytics

import (
	"context"

	"github.com/uptrace/bun"

	"ms-guests/internal/models"
)

// DB runs the read-only aggregate queries behind the dashboard.
type DB struct {
	bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// StatusRow is one status bucket of the guest list.
type StatusRow struct {
	Status         string `bun:"status"`
	Guests         int    `bun:"guests"`
	AllocatedSeats int    `bun:"allocated_seats"`
	ConfirmedSeats int    `bun:"confirmed_seats"`
}

func (db *DB) GuestsByStatus(ctx context.Context, eventID int64) ([]StatusRow, error) {
	var rows []StatusRow
	err := db.bun.NewSelect().
		Model((*models.Guest)(nil)).
		ColumnExpr("g.status AS status").
		ColumnExpr("COUNT(*) AS guests").
		ColumnExpr("COALESCE(SUM(g.allocated_seats), 0) AS allocated_seats").
		ColumnExpr("COALESCE(SUM(g.confirmed_seats), 0) AS confirmed_seats").
		Where("g.event_id = ?", eventID).
		GroupExpr("g.status").
		OrderExpr("g.status").
		Scan(ctx, &rows)
	return rows, err
}

// LabelRow counts guests and confirmed seats per tier. Unlabelled guests come
// back with an empty label name.
type LabelRow struct {
	LabelID        *int64 `bun:"label_id"`
	LabelName      string `bun:"label_name"`
	Guests         int    `bun:"guests"`
	ConfirmedSeats int    `bun:"confirmed_seats"`
}

func (db *DB) GuestsByLabel(ctx context.Context, eventID int64) ([]LabelRow, error) {
	var rows []LabelRow
	err := db.bun.NewSelect().
		Model((*models.Guest)(nil)).
		ColumnExpr("g.label_id AS label_id").
		ColumnExpr("COALESCE(lb.name, '') AS label_name").
		ColumnExpr("COUNT(*) AS guests").
		ColumnExpr("COALESCE(SUM(g.confirmed_seats), 0) AS confirmed_seats").
		Join("LEFT JOIN labels AS lb ON lb.id = g.label_id").
		Where("g.event_id = ?", eventID).
		GroupExpr("g.label_id, lb.name").
		OrderExpr("g.label_id").
		Scan(ctx, &rows)
	return rows, err
}

// CountRow is a generic (bucket, total) pair.
type CountRow struct {
	Bucket string `bun:"bucket"`
	Total  int    `bun:"total"`
}

func (db *DB) IDVerificationCounts(ctx context.Context, eventID int64) ([]CountRow, error) {
	var rows []CountRow
	err := db.bun.NewSelect().
		Model((*models.Guest)(nil)).
		ColumnExpr("g.id_verification_status AS bucket").
		ColumnExpr("COUNT(*) AS total").
		Where("g.event_id = ?", eventID).
		GroupExpr("g.id_verification_status").
		OrderExpr("g.id_verification_status").
		Scan(ctx, &rows)
	return rows, err
}

func (db *DB) RequestCounts(ctx context.Context, eventID int64) ([]CountRow, error) {
	var rows []CountRow
	err := db.bun.NewSelect().
		Model((*models.GuestRequest)(nil)).
		ColumnExpr("gr.status AS bucket").
		ColumnExpr("COUNT(*) AS total").
		Join("JOIN guests AS g ON g.id = gr.guest_id").
		Where("g.event_id = ?", eventID).
		GroupExpr("gr.status").
		OrderExpr("gr.status").
		Scan(ctx, &rows)
	return rows, err
}

func (db *DB) WaitlistSize(ctx context.Context, eventID int64) (int, error) {
	return db.bun.NewSelect().
		Model((*models.Guest)(nil)).
		Where("event_id = ?", eventID).
		Where("is_on_waitlist = ?", true).
		Count(ctx)
}

func (db *DB) ItineraryEvents(ctx context.Context, eventID int64) ([]models.ItineraryEvent, error) {
	events := []models.ItineraryEvent{}
	err := db.bun.NewSelect().
		Model(&events).
		Where("event_id = ?", eventID).
		Order("start_time ASC", "id ASC").
		Scan(ctx)
	return events, err
}

func (db *DB) EventExists(ctx context.Context, eventID int64) (bool, error) {
	return db.bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
}
