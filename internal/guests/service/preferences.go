package guests

import (
	"context"
	"strings"

	"ms-guests/internal/apperr"
	"ms-guests/internal/models"
	"ms-guests/internal/validation"
)

// UpdateBleisure stores the guest-paid extension dates. An extension must lie
// strictly outside the host-covered window: check-in before it starts,
// check-out after it ends.
func (s *GuestService) UpdateBleisure(ctx context.Context, guest *models.Guest, req models.BleisureRequest) (*models.Guest, error) {
	if req.ExtendedCheckIn != nil && guest.HostCoveredCheckIn != nil &&
		!req.ExtendedCheckIn.Before(*guest.HostCoveredCheckIn) {
		return nil, apperr.Validation("extendedCheckIn", "Extended check-in must be before host-covered dates")
	}
	if req.ExtendedCheckOut != nil && guest.HostCoveredCheckOut != nil &&
		!req.ExtendedCheckOut.After(*guest.HostCoveredCheckOut) {
		return nil, apperr.Validation("extendedCheckOut", "Extended check-out must be after host-covered dates")
	}
	if req.ExtendedCheckIn != nil && req.ExtendedCheckOut != nil &&
		!req.ExtendedCheckIn.Before(*req.ExtendedCheckOut) {
		return nil, apperr.Validation("extendedCheckOut", "Extended check-out must be after extended check-in")
	}

	if err := s.DB.UpdateBleisure(ctx, guest.ID, req.ExtendedCheckIn, req.ExtendedCheckOut); err != nil {
		return nil, apperr.Internal("failed to update bleisure dates", err)
	}
	s.Logger.LogGuest("BLEISURE", guest.ID, "extension dates updated")
	return s.reload(ctx, guest)
}

// UploadID records an identity document and verifies the claimed name
// against the guest name, ignoring case and surrounding space. A mismatch is
// a normal outcome, not an error.
func (s *GuestService) UploadID(ctx context.Context, guest *models.Guest, req models.IDUploadRequest) (*models.IDVerificationResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	matched := namesMatch(req.VerifiedName, guest.Name)
	status := models.IDVerificationFailed
	message := "Name mismatch - verification failed"
	if matched {
		status = models.IDVerificationVerified
		message = "ID verified successfully"
	}

	if err := s.DB.UpdateIDVerification(ctx, guest.ID, strings.TrimSpace(req.DocumentURL), strings.TrimSpace(req.VerifiedName), status); err != nil {
		return nil, apperr.Internal("failed to record ID upload", err)
	}

	s.Logger.LogGuest("ID", guest.ID, "verification "+status)
	s.publish(ctx, models.NewGuestActivity(models.ActivityIDUploaded, guest, map[string]any{
		"status": status,
	}))

	return &models.IDVerificationResult{Success: matched, Status: status, Message: message}, nil
}

func namesMatch(claimed, actual string) bool {
	return strings.EqualFold(strings.TrimSpace(claimed), strings.TrimSpace(actual))
}

// UpdateSelfManagement toggles the opt-out flags. Omitted flags keep their
// current value.
func (s *GuestService) UpdateSelfManagement(ctx context.Context, guest *models.Guest, req models.SelfManageRequest) (*models.Guest, error) {
	if err := s.DB.UpdateSelfManagement(ctx, guest.ID, req.SelfManageFlights, req.SelfManageHotel); err != nil {
		return nil, apperr.Internal("failed to update self-management", err)
	}
	return s.reload(ctx, guest)
}
