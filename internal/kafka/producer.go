package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-guests/internal/config"
	"ms-guests/internal/logger"
	"ms-guests/internal/models"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

// NewProducer builds a producer whose topic is chosen per message.
func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	if log == nil {
		log = logger.NewDiscard()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

// TopicFor maps an activity type onto its configured topic.
func (p *Producer) TopicFor(activityType string) string {
	switch activityType {
	case models.ActivityGuestInvited:
		return p.Topics.Invitations
	case models.ActivityRSVPConfirmed, models.ActivityRSVPDeclined:
		return p.Topics.RSVP
	case models.ActivityItineraryRegistered, models.ActivityItineraryUnregistered:
		return p.Topics.Itinerary
	case models.ActivityWaitlistJoined:
		return p.Topics.Waitlist
	default:
		return p.Topics.Requests
	}
}

// PublishGuestActivity streams one guest activity to Kafka, keyed by guest so
// a guest's activity stays ordered within its partition.
func (p *Producer) PublishGuestActivity(ctx context.Context, activity models.GuestActivity) error {
	msgBytes, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", activity.Type, err)
	}

	topic := p.TopicFor(activity.Type)
	p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("%s guest=%d", activity.Type, activity.GuestID))

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(activity.GuestID, 10)),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(activity.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", activity.Type, topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
