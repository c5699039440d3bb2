package guests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-guests/internal/apperr"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
)

// Every identity failure reports the same text, whatever the token looked like.
const invalidTokenMessage = "Invalid access token"

type GuestDBLayer interface {
	GetGuestByToken(ctx context.Context, token string) (*models.Guest, error)
	GetGuestByRef(ctx context.Context, ref string) (*models.Guest, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	GetLabel(ctx context.Context, id int64) (*models.Label, error)
	GetPerk(ctx context.Context, id int64) (*models.Perk, error)
	GetFamily(ctx context.Context, guestID int64) ([]models.GuestFamily, error)
	GetEntitledPerks(ctx context.Context, labelID int64) ([]models.EntitledPerk, error)
	ConfirmRSVP(ctx context.Context, guestID int64, seats int, family []models.GuestFamily) error
	DeleteGuestCascade(ctx context.Context, guestID int64) (bool, error)
	UpdateBleisure(ctx context.Context, guestID int64, checkIn, checkOut *time.Time) error
	UpdateIDVerification(ctx context.Context, guestID int64, documentURL, verifiedName, status string) error
	UpdateSelfManagement(ctx context.Context, guestID int64, flights, hotel *bool) error
	CreateRequest(ctx context.Context, request *models.GuestRequest) error
	JoinWaitlist(ctx context.Context, guest *models.Guest, priority int) (int, error)
	ListWaitlist(ctx context.Context, eventID int64) ([]models.Guest, error)
}

// ItineraryView supplies the guest's itinerary with registration and
// conflict flags for the portal.
type ItineraryView interface {
	GuestItinerary(ctx context.Context, guest *models.Guest) ([]models.PortalItineraryItem, error)
}

type ActivityPublisher interface {
	PublishGuestActivity(ctx context.Context, activity models.GuestActivity) error
}

type GuestService struct {
	DB        GuestDBLayer
	Itinerary ItineraryView
	Publisher ActivityPublisher
	Logger    *logger.Logger
}

func NewGuestService(db GuestDBLayer, itinerary ItineraryView, publisher ActivityPublisher, log *logger.Logger) *GuestService {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &GuestService{DB: db, Itinerary: itinerary, Publisher: publisher, Logger: log}
}

// ---------------- IDENTITY GATEWAY ----------------

// ResolveByToken maps an access token to exactly one guest. It is the only
// way a guest-facing operation learns who the caller is.
func (s *GuestService) ResolveByToken(ctx context.Context, token string) (*models.Guest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.NotFound(invalidTokenMessage)
	}

	guest, err := s.DB.GetGuestByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(invalidTokenMessage)
		}
		return nil, apperr.Internal("failed to resolve access token", err)
	}
	return guest, nil
}

// ResolveByRef maps a booking reference to a guest enriched with its event
// and label.
func (s *GuestService) ResolveByRef(ctx context.Context, ref string) (*models.GuestInvitation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperr.Validation("ref", "Booking reference required")
	}

	guest, err := s.DB.GetGuestByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Invitation not found")
		}
		return nil, apperr.Internal("failed to resolve booking reference", err)
	}

	event, label, err := s.eventAndLabel(ctx, guest)
	if err != nil {
		return nil, err
	}
	return &models.GuestInvitation{Guest: guest, Event: event, Label: label}, nil
}

// Portal builds the full guest view: event, label, family, entitlements and
// itinerary, all read fresh from the store.
func (s *GuestService) Portal(ctx context.Context, guest *models.Guest) (*models.GuestInvitation, error) {
	event, label, err := s.eventAndLabel(ctx, guest)
	if err != nil {
		return nil, err
	}

	family, err := s.DB.GetFamily(ctx, guest.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load family", err)
	}

	perks, err := s.ResolveEntitlements(ctx, guest)
	if err != nil {
		return nil, err
	}

	itinerary := []models.PortalItineraryItem{}
	if s.Itinerary != nil {
		itinerary, err = s.Itinerary.GuestItinerary(ctx, guest)
		if err != nil {
			return nil, err
		}
	}

	return &models.GuestInvitation{
		Guest:          guest,
		Event:          event,
		Label:          label,
		Family:         family,
		AvailablePerks: perks,
		Itinerary:      itinerary,
	}, nil
}

// Lookup is the booking-reference view: guest, event, label, family and
// entitlements. A booking ref is shareable, so the view never carries the
// access token.
func (s *GuestService) Lookup(ctx context.Context, ref string) (*models.GuestInvitation, error) {
	invitation, err := s.ResolveByRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	family, err := s.DB.GetFamily(ctx, invitation.Guest.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load family", err)
	}
	perks, err := s.ResolveEntitlements(ctx, invitation.Guest)
	if err != nil {
		return nil, err
	}

	public := *invitation.Guest
	public.AccessToken = ""
	invitation.Guest = &public
	invitation.Family = family
	invitation.AvailablePerks = perks
	return invitation, nil
}

func (s *GuestService) eventAndLabel(ctx context.Context, guest *models.Guest) (*models.Event, *models.Label, error) {
	event, err := s.DB.GetEvent(ctx, guest.EventID)
	if err != nil {
		return nil, nil, apperr.Internal(fmt.Sprintf("failed to load event %d", guest.EventID), err)
	}

	if guest.LabelID == nil {
		return event, nil, nil
	}
	label, err := s.DB.GetLabel(ctx, *guest.LabelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event, nil, nil
		}
		return nil, nil, apperr.Internal(fmt.Sprintf("failed to load label %d", *guest.LabelID), err)
	}
	return event, label, nil
}

// reload re-reads the guest after a mutation so responses reflect the store.
func (s *GuestService) reload(ctx context.Context, guest *models.Guest) (*models.Guest, error) {
	fresh, err := s.DB.GetGuestByToken(ctx, guest.AccessToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(invalidTokenMessage)
		}
		return nil, apperr.Internal("failed to reload guest", err)
	}
	return fresh, nil
}

func (s *GuestService) publish(ctx context.Context, activity models.GuestActivity) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishGuestActivity(ctx, activity); err != nil {
		s.Logger.Error("ACTIVITY", fmt.Sprintf("Failed to publish %s for guest %d: %v", activity.Type, activity.GuestID, err))
	}
}
