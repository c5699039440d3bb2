package guest_api

import (
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-guests/internal/apperr"
	"ms-guests/internal/guests/qr"
	guestredis "ms-guests/internal/guests/redis"
	guests "ms-guests/internal/guests/service"
	"ms-guests/internal/httpjson"
	itinerary "ms-guests/internal/itinerary/service"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
)

const throttledMessage = "Too many failed lookups. Try again later."

// Handler serves the guest portal. There is no login: the access token in
// the path is the credential.
type Handler struct {
	Guests    *guests.GuestService
	Itinerary *itinerary.ItineraryService
	QR        *qr.QRGenerator
	Throttle  *guestredis.Throttle
	Logger    *logger.Logger
}

func NewHandler(guestService *guests.GuestService, itineraryService *itinerary.ItineraryService, qrGen *qr.QRGenerator, throttle *guestredis.Throttle, log *logger.Logger) *Handler {
	return &Handler{
		Guests:    guestService,
		Itinerary: itineraryService,
		QR:        qrGen,
		Throttle:  throttle,
		Logger:    log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/guest/portal/{token}", h.GetPortal)
	r.Get("/api/guest/portal/{token}/qr", h.GetPortalQR)

	r.Route("/api/guest/{token}", func(r chi.Router) {
		r.Put("/rsvp", h.UpdateRSVP)
		r.Put("/bleisure", h.UpdateBleisure)
		r.Post("/upload-id", h.UploadID)
		r.Put("/self-manage", h.UpdateSelfManagement)
		r.Post("/waitlist", h.JoinWaitlist)
		r.Post("/itinerary/{itineraryID}/register", h.Register)
		r.Delete("/itinerary/{itineraryID}/unregister", h.Unregister)
		r.Post("/request", h.SubmitRequest)
	})

	r.Get("/api/guests/lookup", h.Lookup)
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// throttled answers 429 when the caller has used up its failed lookups.
func (h *Handler) throttled(w http.ResponseWriter, r *http.Request) bool {
	if h.Throttle.Allowed(r.Context(), clientID(r)) {
		return false
	}
	h.Logger.LogSecurity("THROTTLE", fmt.Sprintf("rejected lookup from %s on %s", clientID(r), r.URL.Path))
	httpjson.Send(w, http.StatusTooManyRequests, httpjson.ErrorBody{Message: throttledMessage})
	return true
}

func (h *Handler) recordMiss(r *http.Request, err error) {
	if apperr.KindOf(err) != apperr.KindNotFound {
		return
	}
	if _, rerr := h.Throttle.RecordFailure(r.Context(), clientID(r)); rerr != nil {
		h.Logger.Warn("REDIS", rerr.Error())
	}
}

// guest resolves the path token. On failure the response has been written.
func (h *Handler) guest(w http.ResponseWriter, r *http.Request, op string) (*models.Guest, bool) {
	if h.throttled(w, r) {
		return nil, false
	}
	guest, err := h.Guests.ResolveByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.recordMiss(r, err)
		httpjson.Error(w, h.Logger, op, err)
		return nil, false
	}
	return guest, true
}

func (h *Handler) GetPortal(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "GetPortal")
	if !ok {
		return
	}
	invitation, err := h.Guests.Portal(r.Context(), guest)
	if err != nil {
		httpjson.Error(w, h.Logger, "GetPortal", err)
		return
	}
	httpjson.Send(w, http.StatusOK, invitation)
}

func (h *Handler) GetPortalQR(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "GetPortalQR")
	if !ok {
		return
	}
	png, err := h.QR.GeneratePortalQR(guest.AccessToken)
	if err != nil {
		httpjson.Error(w, h.Logger, "GetPortalQR", apperr.Internal("failed to render QR code", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.throttled(w, r) {
		return
	}
	invitation, err := h.Guests.Lookup(r.Context(), r.URL.Query().Get("ref"))
	if err != nil {
		h.recordMiss(r, err)
		httpjson.Error(w, h.Logger, "Lookup", err)
		return
	}
	httpjson.Send(w, http.StatusOK, invitation)
}

func (h *Handler) UpdateRSVP(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "UpdateRSVP")
	if !ok {
		return
	}
	var req models.RSVPRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Logger, "UpdateRSVP", err)
		return
	}
	h.Logger.LogGuest("RSVP", guest.ID, fmt.Sprintf("status=%s family=%d", req.Status, len(req.FamilyMembers)))

	result, err := h.Guests.UpdateRSVP(r.Context(), guest, req)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateRSVP", err)
		return
	}
	httpjson.Send(w, http.StatusOK, result)
}

func (h *Handler) UpdateBleisure(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "UpdateBleisure")
	if !ok {
		return
	}
	var req models.BleisureRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Logger, "UpdateBleisure", err)
		return
	}
	updated, err := h.Guests.UpdateBleisure(r.Context(), guest, req)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateBleisure", err)
		return
	}
	httpjson.Send(w, http.StatusOK, updated)
}

func (h *Handler) UploadID(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "UploadID")
	if !ok {
		return
	}
	var req models.IDUploadRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Logger, "UploadID", err)
		return
	}
	result, err := h.Guests.UploadID(r.Context(), guest, req)
	if err != nil {
		httpjson.Error(w, h.Logger, "UploadID", err)
		return
	}
	httpjson.Send(w, http.StatusOK, result)
}

func (h *Handler) UpdateSelfManagement(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "UpdateSelfManagement")
	if !ok {
		return
	}
	var req models.SelfManageRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Logger, "UpdateSelfManagement", err)
		return
	}
	updated, err := h.Guests.UpdateSelfManagement(r.Context(), guest, req)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateSelfManagement", err)
		return
	}
	httpjson.Send(w, http.StatusOK, updated)
}

func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "JoinWaitlist")
	if !ok {
		return
	}
	result, err := h.Guests.JoinWaitlist(r.Context(), guest)
	if err != nil {
		httpjson.Error(w, h.Logger, "JoinWaitlist", err)
		return
	}
	httpjson.Send(w, http.StatusOK, result)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "Register")
	if !ok {
		return
	}
	itineraryID, err := httpjson.IDParam(r, "itineraryID")
	if err != nil {
		httpjson.Error(w, h.Logger, "Register", err)
		return
	}
	result, err := h.Itinerary.Register(r.Context(), guest, itineraryID)
	if err != nil {
		httpjson.Error(w, h.Logger, "Register", err)
		return
	}
	httpjson.Send(w, http.StatusOK, result)
}

func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "Unregister")
	if !ok {
		return
	}
	itineraryID, err := httpjson.IDParam(r, "itineraryID")
	if err != nil {
		httpjson.Error(w, h.Logger, "Unregister", err)
		return
	}
	if err := h.Itinerary.Unregister(r.Context(), guest, itineraryID); err != nil {
		httpjson.Error(w, h.Logger, "Unregister", err)
		return
	}
	httpjson.Send(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	guest, ok := h.guest(w, r, "SubmitRequest")
	if !ok {
		return
	}
	var in models.GuestRequestInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "SubmitRequest", err)
		return
	}
	request, err := h.Guests.SubmitRequest(r.Context(), guest, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "SubmitRequest", err)
		return
	}
	httpjson.Send(w, http.StatusCreated, request)
}
