package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	GuestStatusPending   = "pending"
	GuestStatusConfirmed = "confirmed"
	GuestStatusDeclined  = "declined"
)

const (
	IDVerificationPending  = "pending"
	IDVerificationVerified = "verified"
	IDVerificationFailed   = "failed"
)

type Guest struct {
	bun.BaseModel `bun:"table:guests,alias:g"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	EventID     int64  `bun:"event_id,notnull" json:"eventId"`
	LabelID     *int64 `bun:"label_id" json:"labelId"`
	Name        string `bun:"name,notnull" json:"name"`
	Email       string `bun:"email,notnull" json:"email"`
	Phone       string `bun:"phone" json:"phone"`
	Category    string `bun:"category" json:"category"`
	BookingRef  string `bun:"booking_ref,notnull,unique" json:"bookingRef"`
	AccessToken string `bun:"access_token,notnull,unique" json:"accessToken,omitempty"`
	Status      string `bun:"status,notnull" json:"status"`

	AllocatedSeats int `bun:"allocated_seats,notnull" json:"allocatedSeats"`
	ConfirmedSeats int `bun:"confirmed_seats,notnull" json:"confirmedSeats"`

	// Set by the agent; read-only on the guest portal.
	ArrivalDate         *time.Time `bun:"arrival_date" json:"arrivalDate"`
	DepartureDate       *time.Time `bun:"departure_date" json:"departureDate"`
	TravelMode          string     `bun:"travel_mode" json:"travelMode"`
	HostCoveredCheckIn  *time.Time `bun:"host_covered_check_in" json:"hostCoveredCheckIn"`
	HostCoveredCheckOut *time.Time `bun:"host_covered_check_out" json:"hostCoveredCheckOut"`

	// Bleisure extension, paid by the guest.
	ExtendedCheckIn  *time.Time `bun:"extended_check_in" json:"extendedCheckIn"`
	ExtendedCheckOut *time.Time `bun:"extended_check_out" json:"extendedCheckOut"`

	IDDocumentURL        string `bun:"id_document_url" json:"idDocumentUrl"`
	IDVerifiedName       string `bun:"id_verified_name" json:"idVerifiedName"`
	IDVerificationStatus string `bun:"id_verification_status,notnull" json:"idVerificationStatus"`

	SelfManageFlights bool `bun:"self_manage_flights,notnull" json:"selfManageFlights"`
	SelfManageHotel   bool `bun:"self_manage_hotel,notnull" json:"selfManageHotel"`

	IsOnWaitlist     bool `bun:"is_on_waitlist,notnull" json:"isOnWaitlist"`
	WaitlistPriority *int `bun:"waitlist_priority" json:"waitlistPriority"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// GuestFamily is an extra seat under a guest's allocation.
type GuestFamily struct {
	bun.BaseModel `bun:"table:guest_family,alias:gf"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	GuestID      int64  `bun:"guest_id,notnull" json:"guestId"`
	Name         string `bun:"name,notnull" json:"name"`
	Relationship string `bun:"relationship,notnull" json:"relationship"`
	Age          *int   `bun:"age" json:"age"`
}

const (
	RequestStatusPending           = "pending"
	RequestStatusApproved          = "approved"
	RequestStatusRejected          = "rejected"
	RequestStatusForwardedToClient = "forwarded_to_client"
)

type GuestRequest struct {
	bun.BaseModel `bun:"table:guest_requests,alias:gr"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	GuestID   int64     `bun:"guest_id,notnull" json:"guestId"`
	PerkID    *int64    `bun:"perk_id" json:"perkId"`
	Type      string    `bun:"type,notnull" json:"type"`
	Status    string    `bun:"status,notnull" json:"status"`
	Notes     string    `bun:"notes" json:"notes"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`

	Guest *Guest `bun:"rel:belongs-to,join:guest_id=id" json:"guest,omitempty"`
	Perk  *Perk  `bun:"rel:belongs-to,join:perk_id=id" json:"perk,omitempty"`
}
