package planning_api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-guests/internal/auth"
	"ms-guests/internal/database/dbtest"
	guestdb "ms-guests/internal/guests/db"
	"ms-guests/internal/guests/qr"
	guests "ms-guests/internal/guests/service"
	itinerarydb "ms-guests/internal/itinerary/db"
	itinerary "ms-guests/internal/itinerary/service"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
	planningdb "ms-guests/internal/planning/db"
	"ms-guests/internal/planning/planning_api"
	planning "ms-guests/internal/planning/service"
)

const testSecret = "agent-test-secret"

type agentAPI struct {
	router http.Handler
	token  string
	f      *dbtest.Fixture
}

func newAgentAPI(t *testing.T) *agentAPI {
	t.Helper()
	bunDB := dbtest.New(t)
	f := dbtest.Seed(t, bunDB)
	log := logger.NewDiscard()

	gDB := &guestdb.DB{Bun: bunDB}
	itinerarySvc := itinerary.NewItineraryService(&itinerarydb.DB{Bun: bunDB}, gDB, nil, log)
	guestSvc := guests.NewGuestService(gDB, itinerarySvc, nil, log)
	planningSvc := planning.NewPlanningService(&planningdb.DB{Bun: bunDB}, gDB, qr.NewQRGenerator("https://guests.example.com"), nil, log)

	mw, err := auth.HMACMiddleware(testSecret)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api/agent", func(r chi.Router) {
		r.Use(mw)
		planning_api.NewHandler(planningSvc, itinerarySvc, guestSvc, log).RegisterRoutes(r)
	})

	token, err := auth.IssueAgentToken(testSecret, "agent-7", time.Hour)
	require.NoError(t, err)
	return &agentAPI{router: r, token: token, f: f}
}

func (a *agentAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/agent"+path, &buf)
	req.Header.Set("Authorization", "Bearer "+a.token)
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func TestAgentRoutesRequireAuth(t *testing.T) {
	api := newAgentAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agent/events", nil)
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListEvents(t *testing.T) {
	api := newAgentAPI(t)

	rr := api.do(t, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var events []models.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Smith & Jones Wedding", events[0].Name)
}

func TestGetEventErrors(t *testing.T) {
	api := newAgentAPI(t)

	rr := api.do(t, http.MethodGet, "/events/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodGet, "/events/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Event not found")
}

func TestCreateGuestReturnsLink(t *testing.T) {
	api := newAgentAPI(t)

	rr := api.do(t, http.MethodPost, fmt.Sprintf("/events/%d/guests", api.f.Event.ID), map[string]interface{}{
		"name":           "Bob Jones",
		"email":          "bob@example.com",
		"labelId":        api.f.Friend.ID,
		"allocatedSeats": 2,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		ID          int64  `json:"id"`
		AccessToken string `json:"accessToken"`
		GuestLink   string `json:"guestLink"`
		Allocated   int    `json:"allocatedSeats"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 2, created.Allocated)
	assert.Equal(t, "https://guests.example.com/guest/"+created.AccessToken, created.GuestLink)

	rr = api.do(t, http.MethodPost, fmt.Sprintf("/guests/%d/family", created.ID), map[string]interface{}{
		"name": "Bea", "relationship": "spouse",
	})
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = api.do(t, http.MethodPost, fmt.Sprintf("/guests/%d/family", created.ID), map[string]interface{}{
		"name": "Ben", "relationship": "child",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodDelete, fmt.Sprintf("/guests/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = api.do(t, http.MethodGet, fmt.Sprintf("/guests/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateGuestValidationError(t *testing.T) {
	api := newAgentAPI(t)

	rr := api.do(t, http.MethodPost, fmt.Sprintf("/events/%d/guests", api.f.Event.ID), map[string]interface{}{
		"name": "No email",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "email", body.Field)
}

func TestUpsertLabelPerkRoute(t *testing.T) {
	api := newAgentAPI(t)

	rr := api.do(t, http.MethodPut, fmt.Sprintf("/labels/%d/perks", api.f.Friend.ID), map[string]interface{}{
		"perkId":    api.f.Spa.ID,
		"isEnabled": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var row models.LabelPerk
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &row))
	assert.True(t, row.IsEnabled)

	rr = api.do(t, http.MethodGet, fmt.Sprintf("/labels/%d/perks", api.f.Friend.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var rows []models.LabelPerk
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)
}

func TestItineraryAndWaitlistRoutes(t *testing.T) {
	api := newAgentAPI(t)
	start := time.Date(2026, 6, 19, 18, 0, 0, 0, time.UTC)

	rr := api.do(t, http.MethodPost, fmt.Sprintf("/events/%d/itinerary", api.f.Event.ID), map[string]interface{}{
		"title":     "Welcome Dinner",
		"location":  "Villa Terrace",
		"startTime": start,
		"endTime":   start.Add(3 * time.Hour),
		"capacity":  40,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodPost, fmt.Sprintf("/events/%d/itinerary", api.f.Event.ID), map[string]interface{}{
		"title":     "Backwards",
		"startTime": start,
		"endTime":   start.Add(-time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodGet, fmt.Sprintf("/events/%d/itinerary", api.f.Event.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var events []models.ItineraryEvent
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Welcome Dinner", events[0].Title)

	rr = api.do(t, http.MethodGet, fmt.Sprintf("/events/%d/waitlist", api.f.Event.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = api.do(t, http.MethodGet, "/events/999/waitlist", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestStatusRoute(t *testing.T) {
	api := newAgentAPI(t)

	rr := api.do(t, http.MethodGet, fmt.Sprintf("/events/%d/guests", api.f.Event.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(t, http.MethodPost, fmt.Sprintf("/events/%d/guests", api.f.Event.ID), map[string]interface{}{
		"name": "Carol", "email": "carol@example.com",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var guest models.Guest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &guest))

	rr = api.do(t, http.MethodPost, "/requests", map[string]interface{}{
		"guestId": guest.ID, "type": "room_upgrade",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var request models.GuestRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &request))

	rr = api.do(t, http.MethodPut, fmt.Sprintf("/requests/%d/status", request.ID), map[string]interface{}{
		"status": "approved",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"approved"`)

	rr = api.do(t, http.MethodGet, fmt.Sprintf("/events/%d/requests", api.f.Event.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var requests []models.GuestRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &requests))
	require.Len(t, requests, 1)
	assert.Equal(t, models.RequestStatusApproved, requests[0].Status)
}
