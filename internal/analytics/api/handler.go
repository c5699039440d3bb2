package analytics_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-guests/internal/analytics"
	"ms-guests/internal/apperr"
	"ms-guests/internal/auth"
	"ms-guests/internal/httpjson"
	"ms-guests/internal/logger"
)

const maxBatchEvents = 50

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/events/{eventID}", h.GetEventSummary)
		r.Post("/events/batch", h.GetBatchSummary)
	})
}

func (h *Handler) GetEventSummary(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpjson.IDParam(r, "eventID")
	if err != nil {
		httpjson.Error(w, h.Logger, "GetEventSummary", err)
		return
	}
	h.Logger.Info("ANALYTICS", fmt.Sprintf("Summary for event %d requested by %s", eventID, auth.AgentID(r.Context())))

	summary, err := h.Service.GetEventSummary(r.Context(), eventID)
	if err != nil {
		httpjson.Error(w, h.Logger, "GetEventSummary", err)
		return
	}
	httpjson.Send(w, http.StatusOK, summary)
}

type batchRequest struct {
	EventIDs []int64 `json:"eventIds"`
}

func (h *Handler) GetBatchSummary(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Logger, "GetBatchSummary", err)
		return
	}
	if len(req.EventIDs) == 0 {
		httpjson.Error(w, h.Logger, "GetBatchSummary", apperr.Validation("eventIds", "eventIds is required"))
		return
	}
	if len(req.EventIDs) > maxBatchEvents {
		httpjson.Error(w, h.Logger, "GetBatchSummary",
			apperr.Validation("eventIds", "at most %d events per batch", maxBatchEvents))
		return
	}
	h.Logger.Debug("ANALYTICS", fmt.Sprintf("Batch summary for %d events", len(req.EventIDs)))

	batch, err := h.Service.GetBatchSummary(r.Context(), req.EventIDs)
	if err != nil {
		httpjson.Error(w, h.Logger, "GetBatchSummary", err)
		return
	}
	httpjson.Send(w, http.StatusOK, batch)
}
