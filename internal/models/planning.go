package models

import "time"

// Agent-side payloads. Optional fields are pointers so a PUT can leave them
// unchanged.

type EventInput struct {
	Name        string    `json:"name" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Description string    `json:"description"`
	IsPublished *bool     `json:"isPublished"`
}

type LabelInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type PerkInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required,oneof=transport accommodation meal activity"`
}

type LabelPerkInput struct {
	PerkID                 int64 `json:"perkId" validate:"required,gt=0"`
	IsEnabled              *bool `json:"isEnabled"`
	ExpenseHandledByClient *bool `json:"expenseHandledByClient"`
}

type GuestInput struct {
	LabelID             *int64     `json:"labelId"`
	Name                string     `json:"name" validate:"required"`
	Email               string     `json:"email" validate:"required,email"`
	Phone               string     `json:"phone"`
	Category            string     `json:"category"`
	AllocatedSeats      *int       `json:"allocatedSeats" validate:"omitempty,gte=1"`
	ArrivalDate         *time.Time `json:"arrivalDate"`
	DepartureDate       *time.Time `json:"departureDate"`
	TravelMode          string     `json:"travelMode"`
	HostCoveredCheckIn  *time.Time `json:"hostCoveredCheckIn"`
	HostCoveredCheckOut *time.Time `json:"hostCoveredCheckOut"`
}

// CreatedGuest is returned once, at creation, with the link to send.
type CreatedGuest struct {
	*Guest
	GuestLink string `json:"guestLink"`
}

type RequestStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected forwarded_to_client"`
}

type AgentRequestInput struct {
	GuestID int64  `json:"guestId" validate:"required,gt=0"`
	PerkID  *int64 `json:"perkId"`
	Type    string `json:"type" validate:"required"`
	Notes   string `json:"notes" validate:"max=2000"`
}
