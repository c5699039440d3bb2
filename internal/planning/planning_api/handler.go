package planning_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-guests/internal/auth"
	guests "ms-guests/internal/guests/service"
	"ms-guests/internal/httpjson"
	itinerary "ms-guests/internal/itinerary/service"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
	planning "ms-guests/internal/planning/service"
)

// Handler serves the agent dashboard API. Every route sits behind the agent
// auth middleware.
type Handler struct {
	Planning  *planning.PlanningService
	Itinerary *itinerary.ItineraryService
	Guests    *guests.GuestService
	Logger    *logger.Logger
}

func NewHandler(planningService *planning.PlanningService, itineraryService *itinerary.ItineraryService, guestService *guests.GuestService, log *logger.Logger) *Handler {
	return &Handler{
		Planning:  planningService,
		Itinerary: itineraryService,
		Guests:    guestService,
		Logger:    log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Put("/", h.UpdateEvent)
			r.Get("/labels", h.ListLabels)
			r.Post("/labels", h.CreateLabel)
			r.Get("/perks", h.ListPerks)
			r.Post("/perks", h.CreatePerk)
			r.Get("/guests", h.ListGuests)
			r.Post("/guests", h.CreateGuest)
			r.Get("/requests", h.ListRequests)
			r.Get("/itinerary", h.ListItinerary)
			r.Post("/itinerary", h.CreateItineraryEvent)
			r.Get("/waitlist", h.Waitlist)
		})
	})

	r.Put("/labels/{labelID}", h.UpdateLabel)
	r.Get("/labels/{labelID}/perks", h.ListLabelPerks)
	r.Put("/labels/{labelID}/perks", h.UpsertLabelPerk)

	r.Put("/perks/{perkID}", h.UpdatePerk)

	r.Route("/guests/{guestID}", func(r chi.Router) {
		r.Get("/", h.GetGuest)
		r.Put("/", h.UpdateGuest)
		r.Delete("/", h.DeleteGuest)
		r.Get("/family", h.ListFamily)
		r.Post("/family", h.AddFamilyMember)
	})

	r.Post("/requests", h.CreateRequest)
	r.Put("/requests/{requestID}/status", h.UpdateRequestStatus)

	r.Put("/itinerary/{itineraryID}", h.UpdateItineraryEvent)
}

func (h *Handler) logCall(r *http.Request, op string) {
	h.Logger.Info("AGENT", fmt.Sprintf("%s: agent=%s", op, auth.AgentID(r.Context())))
}

// ---------------- EVENTS ----------------

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Planning.ListEvents(r.Context())
	if err != nil {
		httpjson.Error(w, h.Logger, "ListEvents", err)
		return
	}
	httpjson.Send(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "GetEvent", err)
		return
	}
	event, err := h.Planning.GetEvent(r.Context(), eventID)
	if err != nil {
		httpjson.Error(w, h.Logger, "GetEvent", err)
		return
	}
	httpjson.Send(w, http.StatusOK, event)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "CreateEvent")

	var in models.EventInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "CreateEvent", err)
		return
	}
	event, err := h.Planning.CreateEvent(r.Context(), in)
	if err != nil {
		httpjson.Error(w, h.Logger, "CreateEvent", err)
		return
	}
	httpjson.Send(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "UpdateEvent")

	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateEvent", err)
		return
	}
	var in models.EventInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "UpdateEvent", err)
		return
	}
	event, err := h.Planning.UpdateEvent(r.Context(), eventID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateEvent", err)
		return
	}
	httpjson.Send(w, http.StatusOK, event)
}

// ---------------- LABELS ----------------

func (h *Handler) ListLabels(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "ListLabels", err)
		return
	}
	labels, err := h.Planning.ListLabels(r.Context(), eventID)
	if err != nil {
		httpjson.Error(w, h.Logger, "ListLabels", err)
		return
	}
	httpjson.Send(w, http.StatusOK, labels)
}

func (h *Handler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "CreateLabel", err)
		return
	}
	var in models.LabelInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "CreateLabel", err)
		return
	}
	label, err := h.Planning.CreateLabel(r.Context(), eventID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "CreateLabel", err)
		return
	}
	httpjson.Send(w, http.StatusCreated, label)
}

func (h *Handler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	labelID, err := httpjson.IDParam(r, "labelID")
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateLabel", err)
		return
	}
	var in models.LabelInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "UpdateLabel", err)
		return
	}
	label, err := h.Planning.UpdateLabel(r.Context(), labelID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateLabel", err)
		return
	}
	httpjson.Send(w, http.StatusOK, label)
}

func (h *Handler) ListLabelPerks(w http.ResponseWriter, r *http.Request) {
	labelID, err := httpjson.IDParam(r, "labelID")
	if err != nil {
		httpjson.Error(w, h.Logger, "ListLabelPerks", err)
		return
	}
	rows, err := h.Planning.ListLabelPerks(r.Context(), labelID)
	if err != nil {
		httpjson.Error(w, h.Logger, "ListLabelPerks", err)
		return
	}
	httpjson.Send(w, http.StatusOK, rows)
}

func (h *Handler) UpsertLabelPerk(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "UpsertLabelPerk")

	labelID, err := httpjson.IDParam(r, "labelID")
	if err != nil {
		httpjson.Error(w, h.Logger, "UpsertLabelPerk", err)
		return
	}
	var in models.LabelPerkInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "UpsertLabelPerk", err)
		return
	}
	row, err := h.Planning.UpsertLabelPerk(r.Context(), labelID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpsertLabelPerk", err)
		return
	}
	httpjson.Send(w, http.StatusOK, row)
}

// ---------------- PERKS ----------------

func (h *Handler) ListPerks(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "ListPerks", err)
		return
	}
	perks, err := h.Planning.ListPerks(r.Context(), eventID)
	if err != nil {
		httpjson.Error(w, h.Logger, "ListPerks", err)
		return
	}
	httpjson.Send(w, http.StatusOK, perks)
}

func (h *Handler) CreatePerk(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "CreatePerk", err)
		return
	}
	var in models.PerkInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "CreatePerk", err)
		return
	}
	perk, err := h.Planning.CreatePerk(r.Context(), eventID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "CreatePerk", err)
		return
	}
	httpjson.Send(w, http.StatusCreated, perk)
}

func (h *Handler) UpdatePerk(w http.ResponseWriter, r *http.Request) {
	perkID, err := httpjson.IDParam(r, "perkID")
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdatePerk", err)
		return
	}
	var in models.PerkInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "UpdatePerk", err)
		return
	}
	perk, err := h.Planning.UpdatePerk(r.Context(), perkID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdatePerk", err)
		return
	}
	httpjson.Send(w, http.StatusOK, perk)
}
