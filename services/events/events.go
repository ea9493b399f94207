// Package events publishes domain events to the message broker.
package events

import (
	"context"
	"coursehub/logger"
	"coursehub/metrics"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	CourseCreated     = "course.created"
	CourseUpdated     = "course.updated"
	CourseDeleted     = "course.deleted"
	PurchaseCompleted = "purchase.completed"
)

type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload,omitempty"`
}

// Publisher delivers events best effort; failures are logged, never returned to callers.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// batchTimeout bounds how long a synchronous publish waits for more messages before flushing.
const batchTimeout = 10 * time.Millisecond

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: batchTimeout,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	entry := logger.Log.WithFields(logrus.Fields{"type": event.Type, "key": event.Key})

	value, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(event.Type, "failed").Inc()
		entry.WithError(err).Error("failed to encode event")
		return
	}

	// detached from the request so a finished response does not cancel delivery
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.Key), Value: value}); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(event.Type, "failed").Inc()
		entry.WithError(err).Warn("failed to publish event")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(event.Type, "success").Inc()
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) {
	logger.Log.WithFields(logrus.Fields{"type": event.Type, "key": event.Key}).Debug("event dropped, no broker configured")
}

func (NopPublisher) Close() error { return nil }

// New picks the Kafka publisher when brokers are configured.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
