// Package kafka mirrors committed procurement notifications onto a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Event is the JSON payload written for one notification.
type Event struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	ActionURL string    `json:"action_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher writes notifications keyed by recipient so one inbox stays ordered
// within a partition.
type Publisher struct {
	writer Writer
}

// NewPublisher builds a publisher over an existing writer.
func NewPublisher(writer Writer) (*Publisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("kafka writer is required")
	}
	return &Publisher{writer: writer}, nil
}

// Dial builds a publisher writing to topic on brokers.
func Dial(brokers []string, topic string) (*Publisher, error) {
	cleaned := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			cleaned = append(cleaned, broker)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	return NewPublisher(&kafkago.Writer{
		Addr:                   kafkago.TCP(cleaned...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

// Publish writes one notification event.
func (p *Publisher) Publish(ctx context.Context, notification domain.Notification) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("kafka publisher is not configured")
	}
	payload, err := json.Marshal(Event{
		ID:        notification.ID,
		Recipient: notification.Recipient,
		Type:      string(notification.Type),
		Severity:  notification.Type.Severity(),
		Title:     notification.Title,
		Message:   notification.Message,
		RequestID: notification.RequestID,
		ActionURL: notification.ActionURL,
		CreatedAt: notification.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(notification.Recipient),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("write notification event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
