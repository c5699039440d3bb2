package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-guests/internal/logger"
	"ms-guests/internal/models"
)

// readBackoff is the pause after a failed read before the next attempt.
const readBackoff = 2 * time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader  messageReader
	logger  *logger.Logger
	backoff time.Duration
}

// NewConsumer reads guest activity from every given topic as one group
// member.
func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.NewDiscard()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log, backoff: readBackoff}
}

// Start hands each decoded activity to handler until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, handler func(models.GuestActivity)) {
	c.logger.Info("KAFKA", "Guest activity consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				c.logger.Info("KAFKA", "Guest activity consumer stopped")
				return
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			select {
			case <-ctx.Done():
				c.logger.Info("KAFKA", "Guest activity consumer stopped")
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		activity, err := DecodeActivity(msg.Value)
		if err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping message at %s/%d: %v", msg.Topic, msg.Offset, err))
			continue
		}
		handler(activity)
	}
}

func DecodeActivity(value []byte) (models.GuestActivity, error) {
	var activity models.GuestActivity
	if err := json.Unmarshal(value, &activity); err != nil {
		return activity, fmt.Errorf("failed to decode guest activity: %w", err)
	}
	if activity.Type == "" {
		return activity, errors.New("guest activity without type")
	}
	return activity, nil
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
