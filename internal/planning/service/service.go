package planning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ms-guests/internal/apperr"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
	"ms-guests/internal/utils"
	"ms-guests/internal/validation"
)

const maxCredentialAttempts = 5

type PlanningDBLayer interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	EventCodeExists(ctx context.Context, code string) (bool, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error

	ListLabels(ctx context.Context, eventID int64) ([]models.Label, error)
	GetLabel(ctx context.Context, id int64) (*models.Label, error)
	CreateLabel(ctx context.Context, label *models.Label) error
	UpdateLabel(ctx context.Context, label *models.Label) error

	ListPerks(ctx context.Context, eventID int64) ([]models.Perk, error)
	GetPerk(ctx context.Context, id int64) (*models.Perk, error)
	CreatePerk(ctx context.Context, perk *models.Perk) error
	UpdatePerk(ctx context.Context, perk *models.Perk) error

	ListLabelPerks(ctx context.Context, labelID int64) ([]models.LabelPerk, error)
	GetLabelPerk(ctx context.Context, labelID, perkID int64) (*models.LabelPerk, error)
	UpsertLabelPerk(ctx context.Context, row *models.LabelPerk) error

	ListGuests(ctx context.Context, eventID int64) ([]models.Guest, error)
	GetGuest(ctx context.Context, id int64) (*models.Guest, error)
	CredentialsTaken(ctx context.Context, accessToken, bookingRef string) (bool, error)
	CreateGuest(ctx context.Context, guest *models.Guest) error
	UpdateGuest(ctx context.Context, guest *models.Guest) error

	ListFamily(ctx context.Context, guestID int64) ([]models.GuestFamily, error)
	CountFamily(ctx context.Context, guestID int64) (int, error)
	CreateFamilyMember(ctx context.Context, member *models.GuestFamily) error

	ListRequestsByEvent(ctx context.Context, eventID int64) ([]models.GuestRequest, error)
	GetRequest(ctx context.Context, id int64) (*models.GuestRequest, error)
	CreateRequest(ctx context.Context, request *models.GuestRequest) error
	UpdateRequestStatus(ctx context.Context, id int64, status string) error
}

// GuestRemover deletes a guest with all dependent rows.
type GuestRemover interface {
	DeleteGuestCascade(ctx context.Context, guestID int64) (bool, error)
}

// LinkBuilder turns an access token into the portal URL sent to the guest.
type LinkBuilder interface {
	PortalLink(accessToken string) string
}

type ActivityPublisher interface {
	PublishGuestActivity(ctx context.Context, activity models.GuestActivity) error
}

// PlanningService is the agent-facing side: events, tiers, perks, the
// entitlement matrix, the guest list and request triage.
type PlanningService struct {
	DB        PlanningDBLayer
	Guests    GuestRemover
	Links     LinkBuilder
	Publisher ActivityPublisher
	Logger    *logger.Logger
}

func NewPlanningService(db PlanningDBLayer, guests GuestRemover, links LinkBuilder, publisher ActivityPublisher, log *logger.Logger) *PlanningService {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &PlanningService{DB: db, Guests: guests, Links: links, Publisher: publisher, Logger: log}
}

// loadErr converts a store miss into NotFound naming the entity.
func loadErr(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s not found", entity)
	}
	return apperr.Internal(fmt.Sprintf("failed to load %s", strings.ToLower(entity)), err)
}

func internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return apperr.Internal(op, err)
}

// ---------------- EVENTS ----------------

func (s *PlanningService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.DB.ListEvents(ctx)
	return events, internal("failed to list events", err)
}

func (s *PlanningService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.DB.GetEvent(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Event")
	}
	return event, nil
}

func (s *PlanningService) getLabel(ctx context.Context, id int64) (*models.Label, error) {
	label, err := s.DB.GetLabel(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Label")
	}
	return label, nil
}

func (s *PlanningService) getPerk(ctx context.Context, id int64) (*models.Perk, error) {
	perk, err := s.DB.GetPerk(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Perk")
	}
	return perk, nil
}

func (s *PlanningService) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	guest, err := s.DB.GetGuest(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Guest")
	}
	return guest, nil
}

// CreateEvent stores a new event under a fresh shareable code.
func (s *PlanningService) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	code, err := s.uniqueEventCode(ctx)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Name:        strings.TrimSpace(in.Name),
		Date:        in.Date,
		Location:    strings.TrimSpace(in.Location),
		Description: in.Description,
		EventCode:   code,
	}
	if in.IsPublished != nil {
		event.IsPublished = *in.IsPublished
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, apperr.Internal("failed to create event", err)
	}
	s.Logger.Info("PLANNING", fmt.Sprintf("Created event %d (%s)", event.ID, event.EventCode))
	return event, nil
}

func (s *PlanningService) uniqueEventCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCredentialAttempts; i++ {
		code, err := utils.GenerateEventCode()
		if err != nil {
			return "", apperr.Internal("failed to generate event code", err)
		}
		taken, err := s.DB.EventCodeExists(ctx, code)
		if err != nil {
			return "", apperr.Internal("failed to check event code", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperr.Internal("failed to generate event code", errors.New("too many collisions"))
}

func (s *PlanningService) UpdateEvent(ctx context.Context, id int64, in models.EventInput) (*models.Event, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Name = strings.TrimSpace(in.Name)
	event.Date = in.Date
	event.Location = strings.TrimSpace(in.Location)
	event.Description = in.Description
	if in.IsPublished != nil {
		event.IsPublished = *in.IsPublished
	}
	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return nil, apperr.Internal("failed to update event", err)
	}
	return event, nil
}

// ---------------- LABELS ----------------

func (s *PlanningService) ListLabels(ctx context.Context, eventID int64) ([]models.Label, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	labels, err := s.DB.ListLabels(ctx, eventID)
	return labels, internal("failed to list labels", err)
}

func (s *PlanningService) CreateLabel(ctx context.Context, eventID int64, in models.LabelInput) (*models.Label, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	label := &models.Label{EventID: eventID, Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.DB.CreateLabel(ctx, label); err != nil {
		return nil, apperr.Internal("failed to create label", err)
	}
	return label, nil
}

func (s *PlanningService) UpdateLabel(ctx context.Context, id int64, in models.LabelInput) (*models.Label, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	label, err := s.getLabel(ctx, id)
	if err != nil {
		return nil, err
	}

	label.Name = strings.TrimSpace(in.Name)
	label.Description = in.Description
	if err := s.DB.UpdateLabel(ctx, label); err != nil {
		return nil, apperr.Internal("failed to update label", err)
	}
	return label, nil
}

// ---------------- PERKS ----------------

func (s *PlanningService) ListPerks(ctx context.Context, eventID int64) ([]models.Perk, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	perks, err := s.DB.ListPerks(ctx, eventID)
	return perks, internal("failed to list perks", err)
}

func (s *PlanningService) CreatePerk(ctx context.Context, eventID int64, in models.PerkInput) (*models.Perk, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	perk := &models.Perk{EventID: eventID, Name: strings.TrimSpace(in.Name), Description: in.Description, Type: in.Type}
	if err := s.DB.CreatePerk(ctx, perk); err != nil {
		return nil, apperr.Internal("failed to create perk", err)
	}
	return perk, nil
}

func (s *PlanningService) UpdatePerk(ctx context.Context, id int64, in models.PerkInput) (*models.Perk, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	perk, err := s.getPerk(ctx, id)
	if err != nil {
		return nil, err
	}

	perk.Name = strings.TrimSpace(in.Name)
	perk.Description = in.Description
	perk.Type = in.Type
	if err := s.DB.UpdatePerk(ctx, perk); err != nil {
		return nil, apperr.Internal("failed to update perk", err)
	}
	return perk, nil
}

// ---------------- ENTITLEMENT MATRIX ----------------

func (s *PlanningService) ListLabelPerks(ctx context.Context, labelID int64) ([]models.LabelPerk, error) {
	if _, err := s.getLabel(ctx, labelID); err != nil {
		return nil, err
	}
	rows, err := s.DB.ListLabelPerks(ctx, labelID)
	return rows, internal("failed to list label perks", err)
}

// UpsertLabelPerk sets one cell of the matrix. A new cell defaults to
// enabled and guest-paid; an existing cell keeps the flags the caller omits.
func (s *PlanningService) UpsertLabelPerk(ctx context.Context, labelID int64, in models.LabelPerkInput) (*models.LabelPerk, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	label, err := s.getLabel(ctx, labelID)
	if err != nil {
		return nil, err
	}
	perk, err := s.getPerk(ctx, in.PerkID)
	if err != nil {
		return nil, err
	}
	if perk.EventID != label.EventID {
		return nil, apperr.Validation("perkId", "perk and label belong to different events")
	}

	row := &models.LabelPerk{LabelID: labelID, PerkID: in.PerkID, IsEnabled: true}
	existing, err := s.DB.GetLabelPerk(ctx, labelID, in.PerkID)
	switch {
	case err == nil:
		row.IsEnabled = existing.IsEnabled
		row.ExpenseHandledByClient = existing.ExpenseHandledByClient
	case !errors.Is(err, sql.ErrNoRows):
		return nil, apperr.Internal("failed to load label perk", err)
	}
	if in.IsEnabled != nil {
		row.IsEnabled = *in.IsEnabled
	}
	if in.ExpenseHandledByClient != nil {
		row.ExpenseHandledByClient = *in.ExpenseHandledByClient
	}

	if err := s.DB.UpsertLabelPerk(ctx, row); err != nil {
		return nil, apperr.Internal("failed to save label perk", err)
	}

	saved, err := s.DB.GetLabelPerk(ctx, labelID, in.PerkID)
	if err != nil {
		return nil, apperr.Internal("failed to reload label perk", err)
	}
	saved.Perk = perk
	return saved, nil
}
