package itinerary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ms-guests/internal/apperr"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
	"ms-guests/internal/validation"
)

type ItineraryDBLayer interface {
	GetItineraryEvent(ctx context.Context, id int64) (*models.ItineraryEvent, error)
	ListItineraryEvents(ctx context.Context, eventID int64) ([]models.ItineraryEvent, error)
	ListAttending(ctx context.Context, guestID int64) ([]models.ItineraryEvent, error)
	CreateItineraryEvent(ctx context.Context, event *models.ItineraryEvent) error
	UpdateItineraryEvent(ctx context.Context, event *models.ItineraryEvent) error
	Register(ctx context.Context, guestID, itineraryEventID int64) (bool, int, error)
	Unregister(ctx context.Context, guestID, itineraryEventID int64) (bool, error)
}

// PerkLookup checks perk linkage on agent edits.
type PerkLookup interface {
	GetPerk(ctx context.Context, id int64) (*models.Perk, error)
}

type ActivityPublisher interface {
	PublishGuestActivity(ctx context.Context, activity models.GuestActivity) error
}

type ItineraryService struct {
	DB        ItineraryDBLayer
	Perks     PerkLookup
	Publisher ActivityPublisher
	Logger    *logger.Logger
}

func NewItineraryService(db ItineraryDBLayer, perks PerkLookup, publisher ActivityPublisher, log *logger.Logger) *ItineraryService {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &ItineraryService{DB: db, Perks: perks, Publisher: publisher, Logger: log}
}

// ---------------- GUEST OPERATIONS ----------------

// Register signs the guest up for one activity of their own event.
// Overlapping activities the guest already attends come back as warnings;
// they never block the registration.
func (s *ItineraryService) Register(ctx context.Context, guest *models.Guest, itineraryEventID int64) (*models.RegistrationResult, error) {
	event, err := s.eventOfGuest(ctx, guest, itineraryEventID)
	if err != nil {
		return nil, err
	}

	already, attendees, err := s.DB.Register(ctx, guest.ID, event.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrCapacityExceeded) {
			return nil, err
		}
		return nil, apperr.Internal("failed to register for event", err)
	}

	conflicts, err := s.conflictsWith(ctx, guest.ID, *event)
	if err != nil {
		return nil, err
	}

	if !already {
		s.Logger.LogGuest("ITINERARY", guest.ID, fmt.Sprintf("registered for %d (%d attending)", event.ID, attendees))
		s.publish(ctx, models.NewGuestActivity(models.ActivityItineraryRegistered, guest, map[string]any{
			"itineraryEventId": event.ID,
			"title":            event.Title,
			"conflicts":        len(conflicts),
		}))
	}

	return &models.RegistrationResult{
		Success:           true,
		AlreadyRegistered: already,
		CurrentAttendees:  attendees,
		Conflicts:         conflicts,
	}, nil
}

// Unregister is idempotent: removing a registration that does not exist
// succeeds.
func (s *ItineraryService) Unregister(ctx context.Context, guest *models.Guest, itineraryEventID int64) error {
	removed, err := s.DB.Unregister(ctx, guest.ID, itineraryEventID)
	if err != nil {
		return apperr.Internal("failed to unregister from event", err)
	}
	if removed {
		s.Logger.LogGuest("ITINERARY", guest.ID, fmt.Sprintf("unregistered from %d", itineraryEventID))
		s.publish(ctx, models.NewGuestActivity(models.ActivityItineraryUnregistered, guest, map[string]any{
			"itineraryEventId": itineraryEventID,
		}))
	}
	return nil
}

// GuestItinerary lists the whole schedule of the guest's event. An item has
// a conflict when it overlaps some other activity the guest attends.
func (s *ItineraryService) GuestItinerary(ctx context.Context, guest *models.Guest) ([]models.PortalItineraryItem, error) {
	events, err := s.DB.ListItineraryEvents(ctx, guest.EventID)
	if err != nil {
		return nil, apperr.Internal("failed to load itinerary", err)
	}
	attending, err := s.DB.ListAttending(ctx, guest.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load registrations", err)
	}

	registered := make(map[int64]bool, len(attending))
	for _, a := range attending {
		registered[a.ID] = true
	}

	items := make([]models.PortalItineraryItem, 0, len(events))
	for _, e := range events {
		items = append(items, models.PortalItineraryItem{
			ItineraryEvent: e,
			Registered:     registered[e.ID],
			HasConflict:    len(overlapping(e, attending)) > 0,
		})
	}
	return items, nil
}

func (s *ItineraryService) eventOfGuest(ctx context.Context, guest *models.Guest, itineraryEventID int64) (*models.ItineraryEvent, error) {
	event, err := s.DB.GetItineraryEvent(ctx, itineraryEventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Event not found")
		}
		return nil, apperr.Internal("failed to load itinerary event", err)
	}
	if event.EventID != guest.EventID {
		return nil, apperr.NotFound("Event not found")
	}
	return event, nil
}

func (s *ItineraryService) conflictsWith(ctx context.Context, guestID int64, event models.ItineraryEvent) ([]models.ItineraryEvent, error) {
	attending, err := s.DB.ListAttending(ctx, guestID)
	if err != nil {
		return nil, apperr.Internal("failed to check conflicts", err)
	}
	return overlapping(event, attending), nil
}

// overlapping returns the activities in others that share time with e,
// skipping e itself.
func overlapping(e models.ItineraryEvent, others []models.ItineraryEvent) []models.ItineraryEvent {
	out := []models.ItineraryEvent{}
	for _, o := range others {
		if o.ID != e.ID && e.Overlaps(o) {
			out = append(out, o)
		}
	}
	return out
}

// ---------------- AGENT OPERATIONS ----------------

func (s *ItineraryService) List(ctx context.Context, eventID int64) ([]models.ItineraryEvent, error) {
	events, err := s.DB.ListItineraryEvents(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("failed to list itinerary", err)
	}
	return events, nil
}

func (s *ItineraryService) Create(ctx context.Context, eventID int64, in models.ItineraryEventInput) (*models.ItineraryEvent, error) {
	if err := s.checkInput(ctx, eventID, in); err != nil {
		return nil, err
	}

	event := &models.ItineraryEvent{EventID: eventID}
	apply(event, in)
	if err := s.DB.CreateItineraryEvent(ctx, event); err != nil {
		return nil, apperr.Internal("failed to create itinerary event", err)
	}
	s.Logger.Info("ITINERARY", fmt.Sprintf("Created itinerary event %d for event %d", event.ID, eventID))
	return event, nil
}

// Update replaces the editable fields. Capacity may not drop below the
// number of guests already attending.
func (s *ItineraryService) Update(ctx context.Context, id int64, in models.ItineraryEventInput) (*models.ItineraryEvent, error) {
	event, err := s.DB.GetItineraryEvent(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Itinerary event not found")
		}
		return nil, apperr.Internal("failed to load itinerary event", err)
	}
	if err := s.checkInput(ctx, event.EventID, in); err != nil {
		return nil, err
	}
	if in.Capacity != nil && *in.Capacity < event.CurrentAttendees {
		return nil, apperr.Validation("capacity", "capacity cannot be below the %d guests already attending", event.CurrentAttendees)
	}

	apply(event, in)
	if err := s.DB.UpdateItineraryEvent(ctx, event); err != nil {
		return nil, apperr.Internal("failed to update itinerary event", err)
	}
	return event, nil
}

func (s *ItineraryService) checkInput(ctx context.Context, eventID int64, in models.ItineraryEventInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if !in.EndTime.After(in.StartTime) {
		return apperr.Validation("endTime", "endTime must be after startTime")
	}
	if in.PerkID != nil && s.Perks != nil {
		perk, err := s.Perks.GetPerk(ctx, *in.PerkID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("Perk not found")
			}
			return apperr.Internal("failed to load perk", err)
		}
		if perk.EventID != eventID {
			return apperr.Validation("perkId", "perk belongs to another event")
		}
	}
	return nil
}

func apply(event *models.ItineraryEvent, in models.ItineraryEventInput) {
	event.PerkID = in.PerkID
	event.Title = strings.TrimSpace(in.Title)
	event.Description = in.Description
	event.Location = in.Location
	event.StartTime = in.StartTime
	event.EndTime = in.EndTime
	event.IsMandatory = in.IsMandatory
	event.Capacity = in.Capacity
}

func (s *ItineraryService) publish(ctx context.Context, activity models.GuestActivity) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishGuestActivity(ctx, activity); err != nil {
		s.Logger.Error("ACTIVITY", fmt.Sprintf("Failed to publish %s for guest %d: %v", activity.Type, activity.GuestID, err))
	}
}
