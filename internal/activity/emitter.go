package activity

import (
	"context"
	"sync"

	"ms-guests/internal/models"
)

// Emitter fans guest activity out to dashboard clients subscribed to an
// event.
type Emitter struct {
	clients map[int64][]chan models.GuestActivity
	mu      sync.RWMutex
}

func NewEmitter() *Emitter {
	return &Emitter{
		clients: make(map[int64][]chan models.GuestActivity),
	}
}

// Subscribe registers a client for one event. The channel closes once ctx
// is done.
func (e *Emitter) Subscribe(ctx context.Context, eventID int64) <-chan models.GuestActivity {
	clientChan := make(chan models.GuestActivity, 16)

	e.mu.Lock()
	e.clients[eventID] = append(e.clients[eventID], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(eventID, clientChan)
	}()

	return clientChan
}

// Emit broadcasts to every subscriber of the activity's event. Slow clients
// miss messages rather than stall the sender.
func (e *Emitter) Emit(activity models.GuestActivity) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, clientChan := range e.clients[activity.EventID] {
		select {
		case clientChan <- activity:
		default:
		}
	}
}

// PublishGuestActivity lets the emitter stand in for the Kafka producer when
// Kafka is disabled.
func (e *Emitter) PublishGuestActivity(_ context.Context, activity models.GuestActivity) error {
	e.Emit(activity)
	return nil
}

func (e *Emitter) remove(eventID int64, clientChan chan models.GuestActivity) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

// ClientCount returns the number of clients currently subscribed to an event
func (e *Emitter) ClientCount(eventID int64) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[eventID])
}
