package guests

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
)

const (
	TierVIP     = 1
	TierFamily  = 2
	TierGeneral = 3
)

// TierForLabel derives the waitlist tier from a label name. A nil label is
// general admission.
func TierForLabel(label *models.Label) int {
	if label == nil {
		return TierGeneral
	}
	name := strings.ToLower(label.Name)
	switch {
	case strings.Contains(name, "vip"):
		return TierVIP
	case strings.Contains(name, "family"):
		return TierFamily
	default:
		return TierGeneral
	}
}

// JoinWaitlist puts the guest on the event waitlist. The returned position is
// advisory: two simultaneous joins may see the same number.
func (s *GuestService) JoinWaitlist(ctx context.Context, guest *models.Guest) (*models.WaitlistResult, error) {
	var label *models.Label
	if guest.LabelID != nil {
		l, err := s.DB.GetLabel(ctx, *guest.LabelID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Internal("failed to load label", err)
		}
		label = l
	}

	priority := TierForLabel(label)
	position, err := s.DB.JoinWaitlist(ctx, guest, priority)
	if err != nil {
		return nil, apperr.Internal("failed to join waitlist", err)
	}

	s.Logger.LogGuest("WAITLIST", guest.ID, "joined")
	s.publish(ctx, models.NewGuestActivity(models.ActivityWaitlistJoined, guest, map[string]any{
		"priority": priority,
		"position": position,
	}))

	return &models.WaitlistResult{Success: true, Priority: priority, Position: position}, nil
}

// Waitlist returns the event's waitlist in queue order with 1-based positions.
func (s *GuestService) Waitlist(ctx context.Context, eventID int64) ([]models.WaitlistEntry, error) {
	guests, err := s.DB.ListWaitlist(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("failed to list waitlist", err)
	}

	entries := make([]models.WaitlistEntry, 0, len(guests))
	for i := range guests {
		priority := TierGeneral
		if guests[i].WaitlistPriority != nil {
			priority = *guests[i].WaitlistPriority
		}
		entries = append(entries, models.WaitlistEntry{
			Position: i + 1,
			Priority: priority,
			Guest:    &guests[i],
		})
	}
	return entries, nil
}
