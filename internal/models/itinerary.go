package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ItineraryStatusAttending = "attending"
	ItineraryStatusDeclined  = "declined"
	ItineraryStatusWaitlist  = "waitlist"
)

type ItineraryEvent struct {
	bun.BaseModel `bun:"table:itinerary_events,alias:ie"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID          int64     `bun:"event_id,notnull" json:"eventId"`
	PerkID           *int64    `bun:"perk_id" json:"perkId"`
	Title            string    `bun:"title,notnull" json:"title"`
	Description      string    `bun:"description" json:"description"`
	Location         string    `bun:"location" json:"location"`
	StartTime        time.Time `bun:"start_time,notnull" json:"startTime"`
	EndTime          time.Time `bun:"end_time,notnull" json:"endTime"`
	IsMandatory      bool      `bun:"is_mandatory,notnull" json:"isMandatory"`
	Capacity         *int      `bun:"capacity" json:"capacity"`
	CurrentAttendees int       `bun:"current_attendees,notnull" json:"currentAttendees"`
}

// Overlaps reports whether the two activities share any instant. Touching
// endpoints do not overlap.
func (e ItineraryEvent) Overlaps(other ItineraryEvent) bool {
	return e.StartTime.Before(other.EndTime) && other.StartTime.Before(e.EndTime)
}

type GuestItinerary struct {
	bun.BaseModel `bun:"table:guest_itinerary,alias:gi"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	GuestID          int64     `bun:"guest_id,notnull,unique:guest_itinerary_uq" json:"guestId"`
	ItineraryEventID int64     `bun:"itinerary_event_id,notnull,unique:guest_itinerary_uq" json:"itineraryEventId"`
	Status           string    `bun:"status,notnull" json:"status"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// ItineraryEventInput is the agent payload for creating or replacing an
// activity.
type ItineraryEventInput struct {
	PerkID      *int64    `json:"perkId"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	IsMandatory bool      `json:"isMandatory"`
	Capacity    *int      `json:"capacity" validate:"omitempty,gte=0"`
}
