// Package events publishes recorded workouts to Kafka for downstream
// consumers. Publication is optional: without brokers the Noop publisher is
// used and nothing leaves the process.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pkordes/mapty/internal/domain"
)

// Publisher announces workouts that were appended to a session.
type Publisher interface {
	PublishWorkoutRecorded(ctx context.Context, clientID string, w domain.Workout) error
	Close() error
}

// WorkoutRecorded is the JSON payload of a workout.recorded event.
type WorkoutRecorded struct {
	ClientID   string        `json:"client_id"`
	Workout    domain.Record `json:"workout"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per recorded workout, keyed by client ID
// so that a client's workouts stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher writing synchronously to topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	})
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: time.Now}
}

// PublishWorkoutRecorded encodes w and writes it to the topic.
func (p *KafkaPublisher) PublishWorkoutRecorded(ctx context.Context, clientID string, w domain.Workout) error {
	payload, err := json.Marshal(WorkoutRecorded{
		ClientID:   clientID,
		Workout:    domain.ToRecord(w),
		RecordedAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("events.KafkaPublisher.PublishWorkoutRecorded: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(clientID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("workout.recorded")},
			{Key: "workout_type", Value: []byte(w.Kind())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events.KafkaPublisher.PublishWorkoutRecorded: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards every event.
type Noop struct{}

func (Noop) PublishWorkoutRecorded(context.Context, string, domain.Workout) error { return nil }
func (Noop) Close() error                                                     { return nil }
