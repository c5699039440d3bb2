package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-guests/internal/logger"
	"ms-guests/internal/models"
)

type scriptedReader struct {
	mu    sync.Mutex
	queue []kafka.Message
	calls int
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		return msg, nil
	}
	return kafka.Message{}, errors.New("dial tcp: connection refused")
}

func (r *scriptedReader) Close() error { return nil }

func (r *scriptedReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestConsumerBacksOffWhileBrokerIsDown(t *testing.T) {
	reader := &scriptedReader{}
	c := &Consumer{reader: reader, logger: logger.NewDiscard(), backoff: 100 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Start(ctx, func(models.GuestActivity) {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
	assert.LessOrEqual(t, reader.Calls(), 3)
}

func TestConsumerDeliversAndSkipsGarbage(t *testing.T) {
	payload, err := json.Marshal(models.GuestActivity{Type: models.ActivityRSVPConfirmed, EventID: 4, GuestID: 7})
	require.NoError(t, err)

	reader := &scriptedReader{queue: []kafka.Message{
		{Topic: "guests.rsvp", Value: []byte("not json")},
		{Topic: "guests.rsvp", Value: payload},
	}}
	c := &Consumer{reader: reader, logger: logger.NewDiscard(), backoff: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []models.GuestActivity
	c.Start(ctx, func(a models.GuestActivity) {
		got = append(got, a)
		cancel()
	})

	require.Len(t, got, 1)
	assert.Equal(t, models.ActivityRSVPConfirmed, got[0].Type)
	assert.Equal(t, int64(7), got[0].GuestID)
}
