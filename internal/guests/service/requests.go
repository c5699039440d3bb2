package guests

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
	"ms-guests/internal/validation"
)

const defaultRequestType = "room_upgrade"

// SubmitRequest files an ad-hoc ask outside the entitlement flow. A referenced
// perk must belong to the guest's event.
func (s *GuestService) SubmitRequest(ctx context.Context, guest *models.Guest, in models.GuestRequestInput) (*models.GuestRequest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	requestType := strings.TrimSpace(in.Type)
	if requestType == "" {
		requestType = defaultRequestType
	}

	if in.PerkID != nil {
		perk, err := s.DB.GetPerk(ctx, *in.PerkID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.NotFound("Perk not found")
			}
			return nil, apperr.Internal("failed to load perk", err)
		}
		if perk.EventID != guest.EventID {
			return nil, apperr.NotFound("Perk not found")
		}
	}

	request := &models.GuestRequest{
		GuestID: guest.ID,
		PerkID:  in.PerkID,
		Type:    requestType,
		Status:  models.RequestStatusPending,
		Notes:   strings.TrimSpace(in.Notes),
	}
	if err := s.DB.CreateRequest(ctx, request); err != nil {
		return nil, apperr.Internal("failed to submit request", err)
	}

	s.Logger.LogGuest("REQUEST", guest.ID, "submitted "+requestType)
	s.publish(ctx, models.NewGuestActivity(models.ActivityRequestSubmitted, guest, map[string]any{
		"requestId": request.ID,
		"type":      requestType,
	}))
	return request, nil
}
