package models

import "time"

const (
	ActivityGuestInvited          = "guest.invited"
	ActivityRSVPConfirmed         = "rsvp.confirmed"
	ActivityRSVPDeclined          = "rsvp.declined"
	ActivityItineraryRegistered   = "itinerary.registered"
	ActivityItineraryUnregistered = "itinerary.unregistered"
	ActivityWaitlistJoined        = "waitlist.joined"
	ActivityRequestSubmitted      = "request.submitted"
	ActivityIDUploaded            = "id.uploaded"
)

// GuestActivity is published after a guest-affecting change commits. The
// email and notification collaborators consume it from Kafka; the agent
// dashboard receives it over SSE.
type GuestActivity struct {
	Type       string         `json:"type"`
	EventID    int64          `json:"eventId"`
	GuestID    int64          `json:"guestId"`
	GuestName  string         `json:"guestName,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

func NewGuestActivity(activityType string, guest *Guest, detail map[string]any) GuestActivity {
	return GuestActivity{
		Type:       activityType,
		EventID:    guest.EventID,
		GuestID:    guest.ID,
		GuestName:  guest.Name,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
}
