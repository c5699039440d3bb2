package planning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
	"ms-guests/internal/utils"
	"ms-guests/internal/validation"
)

func (s *PlanningService) ListGuests(ctx context.Context, eventID int64) ([]models.Guest, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	guests, err := s.DB.ListGuests(ctx, eventID)
	return guests, internal("failed to list guests", err)
}

// CreateGuest invites a guest to an event. Credentials are generated here and
// the portal link is returned once for the invitation email.
func (s *PlanningService) CreateGuest(ctx context.Context, eventID int64, in models.GuestInput) (*models.CreatedGuest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if err := s.checkLabel(ctx, eventID, in.LabelID); err != nil {
		return nil, err
	}

	token, ref, err := s.freshCredentials(ctx)
	if err != nil {
		return nil, err
	}

	guest := &models.Guest{
		EventID:              eventID,
		AccessToken:          token,
		BookingRef:           ref,
		Status:               models.GuestStatusPending,
		AllocatedSeats:       1,
		IDVerificationStatus: models.IDVerificationPending,
	}
	applyGuestInput(guest, in)

	if err := s.DB.CreateGuest(ctx, guest); err != nil {
		return nil, apperr.Internal("failed to create guest", err)
	}
	s.Logger.LogGuest("INVITE", guest.ID, fmt.Sprintf("invited to event %d as %s", eventID, guest.BookingRef))

	link := ""
	if s.Links != nil {
		link = s.Links.PortalLink(guest.AccessToken)
	}
	s.publish(ctx, models.NewGuestActivity(models.ActivityGuestInvited, guest, map[string]any{
		"email":      guest.Email,
		"bookingRef": guest.BookingRef,
		"guestLink":  link,
	}))

	return &models.CreatedGuest{Guest: guest, GuestLink: link}, nil
}

func (s *PlanningService) freshCredentials(ctx context.Context) (string, string, error) {
	for i := 0; i < maxCredentialAttempts; i++ {
		token := utils.GenerateAccessToken()
		ref, err := utils.GenerateBookingRef()
		if err != nil {
			return "", "", apperr.Internal("failed to generate booking ref", err)
		}
		taken, err := s.DB.CredentialsTaken(ctx, token, ref)
		if err != nil {
			return "", "", apperr.Internal("failed to check credentials", err)
		}
		if !taken {
			return token, ref, nil
		}
	}
	return "", "", apperr.Internal("failed to generate guest credentials", errors.New("too many collisions"))
}

// UpdateGuest edits the agent-owned fields. Allocation may not drop below
// the seats the guest already confirmed.
func (s *PlanningService) UpdateGuest(ctx context.Context, id int64, in models.GuestInput) (*models.Guest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	guest, err := s.GetGuest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkLabel(ctx, guest.EventID, in.LabelID); err != nil {
		return nil, err
	}
	if in.AllocatedSeats != nil && *in.AllocatedSeats < guest.ConfirmedSeats {
		return nil, apperr.Validation("allocatedSeats",
			"Cannot allocate %d seats. %d already confirmed.", *in.AllocatedSeats, guest.ConfirmedSeats)
	}

	applyGuestInput(guest, in)
	if err := s.DB.UpdateGuest(ctx, guest); err != nil {
		return nil, apperr.Internal("failed to update guest", err)
	}
	return guest, nil
}

func (s *PlanningService) DeleteGuest(ctx context.Context, id int64) error {
	removed, err := s.Guests.DeleteGuestCascade(ctx, id)
	if err != nil {
		return apperr.Internal("failed to delete guest", err)
	}
	if !removed {
		return apperr.NotFound("Guest not found")
	}
	s.Logger.LogGuest("DELETE", id, "removed by agent")
	return nil
}

func (s *PlanningService) checkLabel(ctx context.Context, eventID int64, labelID *int64) error {
	if labelID == nil {
		return nil
	}
	label, err := s.DB.GetLabel(ctx, *labelID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Validation("labelId", "label %d does not exist", *labelID)
	}
	if err != nil {
		return apperr.Internal("failed to load label", err)
	}
	if label.EventID != eventID {
		return apperr.Validation("labelId", "label belongs to another event")
	}
	return nil
}

func applyGuestInput(guest *models.Guest, in models.GuestInput) {
	guest.LabelID = in.LabelID
	guest.Name = strings.TrimSpace(in.Name)
	guest.Email = strings.TrimSpace(in.Email)
	guest.Phone = in.Phone
	guest.Category = in.Category
	if in.AllocatedSeats != nil {
		guest.AllocatedSeats = *in.AllocatedSeats
	}
	guest.ArrivalDate = in.ArrivalDate
	guest.DepartureDate = in.DepartureDate
	guest.TravelMode = in.TravelMode
	guest.HostCoveredCheckIn = in.HostCoveredCheckIn
	guest.HostCoveredCheckOut = in.HostCoveredCheckOut
}

// ---------------- FAMILY ----------------

func (s *PlanningService) ListFamily(ctx context.Context, guestID int64) ([]models.GuestFamily, error) {
	if _, err := s.GetGuest(ctx, guestID); err != nil {
		return nil, err
	}
	family, err := s.DB.ListFamily(ctx, guestID)
	return family, internal("failed to list family", err)
}

// AddFamilyMember adds one seat under the guest's allocation. The guest
// themself always holds one seat.
func (s *PlanningService) AddFamilyMember(ctx context.Context, guestID int64, in models.FamilyMemberInput) (*models.GuestFamily, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	guest, err := s.GetGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}

	count, err := s.DB.CountFamily(ctx, guestID)
	if err != nil {
		return nil, apperr.Internal("failed to count family", err)
	}
	if seats := count + 2; seats > guest.AllocatedSeats {
		return nil, apperr.CapacityExceeded("Cannot add family member: %d seats allocated, %d already used.",
			guest.AllocatedSeats, count+1)
	}

	member := &models.GuestFamily{
		GuestID:      guestID,
		Name:         strings.TrimSpace(in.Name),
		Relationship: strings.TrimSpace(in.Relationship),
		Age:          in.Age,
	}
	if err := s.DB.CreateFamilyMember(ctx, member); err != nil {
		return nil, apperr.Internal("failed to add family member", err)
	}
	return member, nil
}

// ---------------- REQUESTS ----------------

func (s *PlanningService) ListRequests(ctx context.Context, eventID int64) ([]models.GuestRequest, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	requests, err := s.DB.ListRequestsByEvent(ctx, eventID)
	return requests, internal("failed to list requests", err)
}

// CreateRequest files a request on a guest's behalf, e.g. from a phone call.
func (s *PlanningService) CreateRequest(ctx context.Context, in models.AgentRequestInput) (*models.GuestRequest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	guest, err := s.GetGuest(ctx, in.GuestID)
	if err != nil {
		return nil, err
	}
	if in.PerkID != nil {
		perk, err := s.getPerk(ctx, *in.PerkID)
		if err != nil {
			return nil, err
		}
		if perk.EventID != guest.EventID {
			return nil, apperr.Validation("perkId", "perk belongs to another event")
		}
	}

	request := &models.GuestRequest{
		GuestID: guest.ID,
		PerkID:  in.PerkID,
		Type:    strings.TrimSpace(in.Type),
		Status:  models.RequestStatusPending,
		Notes:   in.Notes,
	}
	if err := s.DB.CreateRequest(ctx, request); err != nil {
		return nil, apperr.Internal("failed to create request", err)
	}
	s.publish(ctx, models.NewGuestActivity(models.ActivityRequestSubmitted, guest, map[string]any{
		"requestId": request.ID,
		"type":      request.Type,
		"byAgent":   true,
	}))
	return request, nil
}

func (s *PlanningService) UpdateRequestStatus(ctx context.Context, id int64, in models.RequestStatusInput) (*models.GuestRequest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	request, err := s.DB.GetRequest(ctx, id)
	if err != nil {
		return nil, loadErr(err, "Request")
	}

	if err := s.DB.UpdateRequestStatus(ctx, id, in.Status); err != nil {
		return nil, apperr.Internal("failed to update request", err)
	}
	request.Status = in.Status
	s.Logger.Info("PLANNING", fmt.Sprintf("Request %d marked %s", id, in.Status))
	return request, nil
}

func (s *PlanningService) publish(ctx context.Context, activity models.GuestActivity) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishGuestActivity(ctx, activity); err != nil {
		s.Logger.Warn("PLANNING", fmt.Sprintf("Failed to publish %s for guest %d: %v", activity.Type, activity.GuestID, err))
	}
}
