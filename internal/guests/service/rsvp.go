package guests

import (
	"context"
	"errors"
	"strings"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
	"ms-guests/internal/validation"
)

const declinedMessage = "Your response has been recorded. You have been removed from the guest list."

// UpdateRSVP drives the guest status machine. Confirming (or amending a
// confirmation) replaces the family set; declining deletes the guest and
// everything hanging off it.
func (s *GuestService) UpdateRSVP(ctx context.Context, guest *models.Guest, req models.RSVPRequest) (*models.RSVPResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case models.GuestStatusConfirmed:
		return s.confirm(ctx, guest, req.FamilyMembers)
	case models.GuestStatusDeclined:
		return s.decline(ctx, guest)
	default:
		return nil, apperr.Validation("status", "status must be %q or %q", models.GuestStatusConfirmed, models.GuestStatusDeclined)
	}
}

func (s *GuestService) confirm(ctx context.Context, guest *models.Guest, members []models.FamilyMemberInput) (*models.RSVPResult, error) {
	seats := 1 + len(members)
	if seats > guest.AllocatedSeats {
		return nil, seatsExceeded(seats, guest.AllocatedSeats)
	}

	family := make([]models.GuestFamily, 0, len(members))
	for _, m := range members {
		family = append(family, models.GuestFamily{
			GuestID:      guest.ID,
			Name:         strings.TrimSpace(m.Name),
			Relationship: strings.TrimSpace(m.Relationship),
			Age:          m.Age,
		})
	}

	if err := s.DB.ConfirmRSVP(ctx, guest.ID, seats, family); err != nil {
		if errors.Is(err, apperr.ErrCapacityExceeded) {
			// allocation was lowered between resolve and write
			fresh, rerr := s.reload(ctx, guest)
			if rerr != nil {
				return nil, rerr
			}
			return nil, seatsExceeded(seats, fresh.AllocatedSeats)
		}
		return nil, apperr.Internal("failed to confirm RSVP", err)
	}

	updated, err := s.reload(ctx, guest)
	if err != nil {
		return nil, err
	}
	savedFamily, err := s.DB.GetFamily(ctx, guest.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load family", err)
	}

	s.Logger.LogGuest("RSVP", guest.ID, "confirmed")
	s.publish(ctx, models.NewGuestActivity(models.ActivityRSVPConfirmed, updated, map[string]any{
		"confirmedSeats": updated.ConfirmedSeats,
	}))

	return &models.RSVPResult{
		Guest:   updated,
		Family:  savedFamily,
		Message: "Your RSVP has been confirmed.",
	}, nil
}

func (s *GuestService) decline(ctx context.Context, guest *models.Guest) (*models.RSVPResult, error) {
	removed, err := s.DB.DeleteGuestCascade(ctx, guest.ID)
	if err != nil {
		return nil, apperr.Internal("failed to record decline", err)
	}
	if !removed {
		return nil, apperr.NotFound(invalidTokenMessage)
	}

	s.Logger.LogGuest("RSVP", guest.ID, "declined, guest and dependent rows removed")
	s.publish(ctx, models.NewGuestActivity(models.ActivityRSVPDeclined, guest, nil))

	return &models.RSVPResult{Removed: true, Message: declinedMessage}, nil
}

func seatsExceeded(requested, allocated int) error {
	return apperr.CapacityExceeded("Cannot confirm %d seats. Only %d allocated.", requested, allocated)
}
