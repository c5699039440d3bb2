package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:ev"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Date        time.Time `bun:"date,notnull" json:"date"`
	Location    string    `bun:"location,notnull" json:"location"`
	Description string    `bun:"description" json:"description"`
	EventCode   string    `bun:"event_code,notnull,unique" json:"eventCode"`
	IsPublished bool      `bun:"is_published,notnull" json:"isPublished"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Label is a guest tier (VIP, Friend, Staff, ...) scoped to one event.
type Label struct {
	bun.BaseModel `bun:"table:labels,alias:lb"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	EventID     int64  `bun:"event_id,notnull" json:"eventId"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description"`
}

const (
	PerkTypeTransport     = "transport"
	PerkTypeAccommodation = "accommodation"
	PerkTypeMeal          = "meal"
	PerkTypeActivity      = "activity"
)

type Perk struct {
	bun.BaseModel `bun:"table:perks,alias:pk"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	EventID     int64  `bun:"event_id,notnull" json:"eventId"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description"`
	Type        string `bun:"type,notnull" json:"type"`
}

// LabelPerk is one edge of the entitlement matrix. A missing row and a row
// with IsEnabled=false mean the same thing.
type LabelPerk struct {
	bun.BaseModel `bun:"table:label_perks,alias:lp"`

	ID                     int64 `bun:"id,pk,autoincrement" json:"id"`
	LabelID                int64 `bun:"label_id,notnull,unique:label_perk_uq" json:"labelId"`
	PerkID                 int64 `bun:"perk_id,notnull,unique:label_perk_uq" json:"perkId"`
	IsEnabled              bool  `bun:"is_enabled,notnull" json:"isEnabled"`
	ExpenseHandledByClient bool  `bun:"expense_handled_by_client,notnull" json:"expenseHandledByClient"`

	Perk *Perk `bun:"rel:belongs-to,join:perk_id=id" json:"perk,omitempty"`
}
