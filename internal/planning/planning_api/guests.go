package planning_api

import (
	"net/http"

	"ms-guests/internal/httpjson"
	"ms-guests/internal/models"
)

func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "ListGuests", err)
		return
	}
	list, err := h.Planning.ListGuests(r.Context(), eventID)
	if err != nil {
		httpjson.Error(w, h.Logger, "ListGuests", err)
		return
	}
	httpjson.Send(w, http.StatusOK, list)
}

func (h *Handler) GetGuest(w http.ResponseWriter, r *http.Request) {
	guestID, err := httpjson.IDParam(r, "guestID")
	if err != nil {
		httpjson.Error(w, h.Logger, "GetGuest", err)
		return
	}
	guest, err := h.Planning.GetGuest(r.Context(), guestID)
	if err != nil {
		httpjson.Error(w, h.Logger, "GetGuest", err)
		return
	}
	httpjson.Send(w, http.StatusOK, guest)
}

func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "CreateGuest")

	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "CreateGuest", err)
		return
	}
	var in models.GuestInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "CreateGuest", err)
		return
	}
	created, err := h.Planning.CreateGuest(r.Context(), eventID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "CreateGuest", err)
		return
	}
	httpjson.Send(w, http.StatusCreated, created)
}

func (h *Handler) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "UpdateGuest")

	guestID, err := httpjson.IDParam(r, "guestID")
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateGuest", err)
		return
	}
	var in models.GuestInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "UpdateGuest", err)
		return
	}
	guest, err := h.Planning.UpdateGuest(r.Context(), guestID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateGuest", err)
		return
	}
	httpjson.Send(w, http.StatusOK, guest)
}

func (h *Handler) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "DeleteGuest")

	guestID, err := httpjson.IDParam(r, "guestID")
	if err != nil {
		httpjson.Error(w, h.Logger, "DeleteGuest", err)
		return
	}
	if err := h.Planning.DeleteGuest(r.Context(), guestID); err != nil {
		httpjson.Error(w, h.Logger, "DeleteGuest", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListFamily(w http.ResponseWriter, r *http.Request) {
	guestID, err := httpjson.IDParam(r, "guestID")
	if err != nil {
		httpjson.Error(w, h.Logger, "ListFamily", err)
		return
	}
	family, err := h.Planning.ListFamily(r.Context(), guestID)
	if err != nil {
		httpjson.Error(w, h.Logger, "ListFamily", err)
		return
	}
	httpjson.Send(w, http.StatusOK, family)
}

func (h *Handler) AddFamilyMember(w http.ResponseWriter, r *http.Request) {
	guestID, err := httpjson.IDParam(r, "guestID")
	if err != nil {
		httpjson.Error(w, h.Logger, "AddFamilyMember", err)
		return
	}
	var in models.FamilyMemberInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "AddFamilyMember", err)
		return
	}
	member, err := h.Planning.AddFamilyMember(r.Context(), guestID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "AddFamilyMember", err)
		return
	}
	httpjson.Send(w, http.StatusCreated, member)
}

// ---------------- REQUESTS ----------------

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "ListRequests", err)
		return
	}
	requests, err := h.Planning.ListRequests(r.Context(), eventID)
	if err != nil {
		httpjson.Error(w, h.Logger, "ListRequests", err)
		return
	}
	httpjson.Send(w, http.StatusOK, requests)
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "CreateRequest")

	var in models.AgentRequestInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "CreateRequest", err)
		return
	}
	request, err := h.Planning.CreateRequest(r.Context(), in)
	if err != nil {
		httpjson.Error(w, h.Logger, "CreateRequest", err)
		return
	}
	httpjson.Send(w, http.StatusCreated, request)
}

func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "UpdateRequestStatus")

	requestID, err := httpjson.IDParam(r, "requestID")
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateRequestStatus", err)
		return
	}
	var in models.RequestStatusInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "UpdateRequestStatus", err)
		return
	}
	request, err := h.Planning.UpdateRequestStatus(r.Context(), requestID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateRequestStatus", err)
		return
	}
	httpjson.Send(w, http.StatusOK, request)
}

// ---------------- ITINERARY & WAITLIST ----------------

func (h *Handler) ListItinerary(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "ListItinerary", err)
		return
	}
	if _, err := h.Planning.GetEvent(r.Context(), eventID); err != nil {
		httpjson.Error(w, h.Logger, "ListItinerary", err)
		return
	}
	events, err := h.Itinerary.List(r.Context(), eventID)
	if err != nil {
		httpjson.Error(w, h.Logger, "ListItinerary", err)
		return
	}
	httpjson.Send(w, http.StatusOK, events)
}

func (h *Handler) CreateItineraryEvent(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "CreateItineraryEvent")

	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "CreateItineraryEvent", err)
		return
	}
	if _, err := h.Planning.GetEvent(r.Context(), eventID); err != nil {
		httpjson.Error(w, h.Logger, "CreateItineraryEvent", err)
		return
	}
	var in models.ItineraryEventInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "CreateItineraryEvent", err)
		return
	}
	event, err := h.Itinerary.Create(r.Context(), eventID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "CreateItineraryEvent", err)
		return
	}
	httpjson.Send(w, http.StatusCreated, event)
}

func (h *Handler) UpdateItineraryEvent(w http.ResponseWriter, r *http.Request) {
	h.logCall(r, "UpdateItineraryEvent")

	itineraryID, err := httpjson.IDParam(r, "itineraryID")
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateItineraryEvent", err)
		return
	}
	var in models.ItineraryEventInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Logger, "UpdateItineraryEvent", err)
		return
	}
	event, err := h.Itinerary.Update(r.Context(), itineraryID, in)
	if err != nil {
		httpjson.Error(w, h.Logger, "UpdateItineraryEvent", err)
		return
	}
	httpjson.Send(w, http.StatusOK, event)
}

func (h *Handler) Waitlist(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "Waitlist", err)
		return
	}
	if _, err := h.Planning.GetEvent(r.Context(), eventID); err != nil {
		httpjson.Error(w, h.Logger, "Waitlist", err)
		return
	}
	entries, err := h.Guests.Waitlist(r.Context(), eventID)
	if err != nil {
		httpjson.Error(w, h.Logger, "Waitlist", err)
		return
	}
	httpjson.Send(w, http.StatusOK, entries)
}
