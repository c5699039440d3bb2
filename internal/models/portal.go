package models

import "time"

// EntitledPerk is a perk as seen by one guest, with the expense attribution
// of the guest's label.
type EntitledPerk struct {
	ID                     int64  `bun:"id" json:"id"`
	EventID                int64  `bun:"event_id" json:"eventId"`
	Name                   string `bun:"name" json:"name"`
	Description            string `bun:"description" json:"description"`
	Type                   string `bun:"type" json:"type"`
	IsEnabled              bool   `bun:"is_enabled" json:"isEnabled"`
	ExpenseHandledByClient bool   `bun:"expense_handled_by_client" json:"expenseHandledByClient"`
}

type PortalItineraryItem struct {
	ItineraryEvent
	Registered  bool `json:"registered"`
	HasConflict bool `json:"hasConflict"`
}

// GuestInvitation is the full guest view returned by the portal and by
// booking-ref lookup.
type GuestInvitation struct {
	*Guest
	Event          *Event                `json:"event"`
	Label          *Label                `json:"label"`
	Family         []GuestFamily         `json:"family"`
	AvailablePerks []EntitledPerk        `json:"availablePerks"`
	Itinerary      []PortalItineraryItem `json:"itinerary,omitempty"`
}

type FamilyMemberInput struct {
	Name         string `json:"name" validate:"required"`
	Relationship string `json:"relationship" validate:"required"`
	Age          *int   `json:"age" validate:"omitempty,gte=0"`
}

type RSVPRequest struct {
	Status        string              `json:"status" validate:"required"`
	FamilyMembers []FamilyMemberInput `json:"familyMembers" validate:"dive"`
}

type RSVPResult struct {
	Guest   *Guest        `json:"guest,omitempty"`
	Family  []GuestFamily `json:"family,omitempty"`
	Removed bool          `json:"removed"`
	Message string        `json:"message"`
}

type RegistrationResult struct {
	Success           bool             `json:"success"`
	AlreadyRegistered bool             `json:"alreadyRegistered"`
	CurrentAttendees  int              `json:"currentAttendees"`
	Conflicts         []ItineraryEvent `json:"conflicts"`
}

type WaitlistResult struct {
	Success  bool `json:"success"`
	Priority int  `json:"priority"`
	Position int  `json:"position"`
}

type WaitlistEntry struct {
	Position int    `json:"position"`
	Priority int    `json:"priority"`
	Guest    *Guest `json:"guest"`
}

type IDVerificationResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type BleisureRequest struct {
	ExtendedCheckIn  *time.Time `json:"extendedCheckIn"`
	ExtendedCheckOut *time.Time `json:"extendedCheckOut"`
}

type IDUploadRequest struct {
	DocumentURL  string `json:"documentUrl" validate:"required"`
	VerifiedName string `json:"verifiedName" validate:"required"`
}

type SelfManageRequest struct {
	SelfManageFlights *bool `json:"selfManageFlights"`
	SelfManageHotel   *bool `json:"selfManageHotel"`
}

type GuestRequestInput struct {
	Type   string `json:"type"`
	PerkID *int64 `json:"perkId"`
	Notes  string `json:"notes" validate:"max=2000"`
}
