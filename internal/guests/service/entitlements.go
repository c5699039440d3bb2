package guests

import (
	"context"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
)

// ResolveEntitlements returns the perks the guest may see, in perk order,
// each with the expense attribution of the guest's label. A guest without a
// label sees nothing.
func (s *GuestService) ResolveEntitlements(ctx context.Context, guest *models.Guest) ([]models.EntitledPerk, error) {
	if guest.LabelID == nil {
		return []models.EntitledPerk{}, nil
	}

	rows, err := s.DB.GetEntitledPerks(ctx, *guest.LabelID)
	if err != nil {
		return nil, apperr.Internal("failed to resolve entitlements", err)
	}

	perks := make([]models.EntitledPerk, 0, len(rows))
	for _, p := range rows {
		if p.IsEnabled {
			perks = append(perks, p)
		}
	}
	return perks, nil
}
