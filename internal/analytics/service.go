package analytics

import (
	"context"
	"fmt"
	"sort"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
)

// SummaryStore is the query surface the summary is built from.
type SummaryStore interface {
	EventExists(ctx context.Context, eventID int64) (bool, error)
	GuestsByStatus(ctx context.Context, eventID int64) ([]StatusRow, error)
	GuestsByLabel(ctx context.Context, eventID int64) ([]LabelRow, error)
	IDVerificationCounts(ctx context.Context, eventID int64) ([]CountRow, error)
	RequestCounts(ctx context.Context, eventID int64) ([]CountRow, error)
	WaitlistSize(ctx context.Context, eventID int64) (int, error)
	ItineraryEvents(ctx context.Context, eventID int64) ([]models.ItineraryEvent, error)
}

type Service struct {
	db SummaryStore
}

func NewService(db SummaryStore) *Service {
	return &Service{db: db}
}

// EventSummary is the agent dashboard headline for one event.
type EventSummary struct {
	EventID         int64            `json:"eventId"`
	TotalGuests     int              `json:"totalGuests"`
	GuestsByStatus  map[string]int   `json:"guestsByStatus"`
	AllocatedSeats  int              `json:"allocatedSeats"`
	ConfirmedSeats  int              `json:"confirmedSeats"`
	WaitlistSize    int              `json:"waitlistSize"`
	IDVerification  map[string]int   `json:"idVerification"`
	Requests        map[string]int   `json:"requests"`
	PendingRequests int              `json:"pendingRequests"`
	Labels          []LabelBreakdown `json:"labels"`
	Itinerary       []ItineraryFill  `json:"itinerary"`
}

type LabelBreakdown struct {
	LabelID        *int64 `json:"labelId"`
	Name           string `json:"name"`
	Guests         int    `json:"guests"`
	ConfirmedSeats int    `json:"confirmedSeats"`
}

// ItineraryFill reports how full an activity is. FillRate is nil for
// activities without a capacity.
type ItineraryFill struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Capacity         *int     `json:"capacity"`
	CurrentAttendees int      `json:"currentAttendees"`
	FillRate         *float64 `json:"fillRate"`
}

// BatchSummary aggregates several events, e.g. all events of one agency.
type BatchSummary struct {
	EventIDs        []int64        `json:"eventIds"`
	TotalGuests     int            `json:"totalGuests"`
	GuestsByStatus  map[string]int `json:"guestsByStatus"`
	AllocatedSeats  int            `json:"allocatedSeats"`
	ConfirmedSeats  int            `json:"confirmedSeats"`
	WaitlistSize    int            `json:"waitlistSize"`
	PendingRequests int            `json:"pendingRequests"`
	Events          []EventSummary `json:"events"`
}

func (s *Service) GetEventSummary(ctx context.Context, eventID int64) (*EventSummary, error) {
	exists, err := s.db.EventExists(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("failed to load event", err)
	}
	if !exists {
		return nil, apperr.NotFound("Event not found")
	}

	summary := &EventSummary{
		EventID: eventID,
		GuestsByStatus: map[string]int{
			models.GuestStatusPending:   0,
			models.GuestStatusConfirmed: 0,
			models.GuestStatusDeclined:  0,
		},
		IDVerification: map[string]int{},
		Requests:       map[string]int{},
		Labels:         []LabelBreakdown{},
		Itinerary:      []ItineraryFill{},
	}

	statuses, err := s.db.GuestsByStatus(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("failed to count guests", err)
	}
	for _, row := range statuses {
		summary.GuestsByStatus[row.Status] = row.Guests
		summary.TotalGuests += row.Guests
		summary.AllocatedSeats += row.AllocatedSeats
		summary.ConfirmedSeats += row.ConfirmedSeats
	}

	labels, err := s.db.GuestsByLabel(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("failed to count guests by label", err)
	}
	for _, row := range labels {
		summary.Labels = append(summary.Labels, LabelBreakdown{
			LabelID:        row.LabelID,
			Name:           row.LabelName,
			Guests:         row.Guests,
			ConfirmedSeats: row.ConfirmedSeats,
		})
	}
	// unlabelled guests last, whatever the store's NULL ordering
	sort.SliceStable(summary.Labels, func(i, j int) bool {
		a, b := summary.Labels[i].LabelID, summary.Labels[j].LabelID
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a < *b
	})

	verification, err := s.db.IDVerificationCounts(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("failed to count ID verifications", err)
	}
	for _, row := range verification {
		summary.IDVerification[row.Bucket] = row.Total
	}

	requests, err := s.db.RequestCounts(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("failed to count requests", err)
	}
	for _, row := range requests {
		summary.Requests[row.Bucket] = row.Total
	}
	summary.PendingRequests = summary.Requests[models.RequestStatusPending]

	if summary.WaitlistSize, err = s.db.WaitlistSize(ctx, eventID); err != nil {
		return nil, apperr.Internal("failed to count waitlist", err)
	}

	events, err := s.db.ItineraryEvents(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("failed to load itinerary", err)
	}
	for _, e := range events {
		summary.Itinerary = append(summary.Itinerary, fillOf(e))
	}

	return summary, nil
}

func fillOf(e models.ItineraryEvent) ItineraryFill {
	fill := ItineraryFill{
		ID:               e.ID,
		Title:            e.Title,
		Capacity:         e.Capacity,
		CurrentAttendees: e.CurrentAttendees,
	}
	if e.Capacity != nil && *e.Capacity > 0 {
		rate := float64(e.CurrentAttendees) / float64(*e.Capacity)
		fill.FillRate = &rate
	}
	return fill
}

// GetBatchSummary sums the summaries of several events. Unknown events are
// reported as NotFound.
func (s *Service) GetBatchSummary(ctx context.Context, eventIDs []int64) (*BatchSummary, error) {
	batch := &BatchSummary{
		EventIDs:       eventIDs,
		GuestsByStatus: map[string]int{},
		Events:         []EventSummary{},
	}
	if batch.EventIDs == nil {
		batch.EventIDs = []int64{}
	}

	seen := make(map[int64]bool, len(eventIDs))
	for _, id := range eventIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		summary, err := s.GetEventSummary(ctx, id)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil, apperr.NotFound("Event %d not found", id)
			}
			return nil, fmt.Errorf("event %d: %w", id, err)
		}

		batch.TotalGuests += summary.TotalGuests
		batch.AllocatedSeats += summary.AllocatedSeats
		batch.ConfirmedSeats += summary.ConfirmedSeats
		batch.WaitlistSize += summary.WaitlistSize
		batch.PendingRequests += summary.PendingRequests
		for status, n := range summary.GuestsByStatus {
			batch.GuestsByStatus[status] += n
		}
		batch.Events = append(batch.Events, *summary)
	}
	return batch, nil
}
