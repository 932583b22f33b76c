package shop

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/commercekit/shopapi/core/logger"
)

// Operation is a write operation on an entity
type Operation string

const (
	// OperationCreate means an entity was created
	OperationCreate Operation = "create"
	// OperationUpdate means an entity was updated
	OperationUpdate Operation = "update"
	// OperationDelete means an entity was deleted
	OperationDelete Operation = "delete"
)

// Notification is an entity change event
type Notification struct {
	Resource   string          `json:"resource"`
	Operation  Operation       `json:"operation"`
	ResourceID int64           `json:"resource_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Notifier receives entity change events
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// notify publishes an entity change event. Notification failures are logged,
// they never fail the request that caused them.
func (b *Backend) notify(ctx context.Context, resource string, operation Operation, resourceID int64, payload interface{}) {
	if b.notifier == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.FromContext(ctx).Errorln("notify", string(operation), resource, ":", err)
		return
	}
	notification := Notification{
		Resource:   resource,
		Operation:  operation,
		ResourceID: resourceID,
		Payload:    body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := b.notifier.Notify(ctx, notification); err != nil {
		logger.FromContext(ctx).Errorln("notify", string(operation), resource, ":", err)
	}
}

// KafkaNotifier publishes notifications to a kafka topic
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier creates a notifier writing to topic on the given brokers
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Notify implements the Notifier interface
func (n *KafkaNotifier) Notify(ctx context.Context, notification Notification) error {
	value, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notification.Resource),
		Value: value,
	})
}

// Close flushes pending messages and closes the underlying writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
