package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

const EventOrderPlaced = "OrderPlaced"

// Envelope wraps every published event. The partition key is the order id so
// all events for one order keep their order.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID string             `json:"order_id"`
	User    string             `json:"user"`
	Lines   []domain.OrderLine `json:"lines"`
	Total   string             `json:"total"`
}

// KafkaPublisher announces placed orders on a Kafka topic. Writes are async
// fire-and-forget; failures are logged through the completion callback and
// never fail the order.
type KafkaPublisher struct {
	writer *kafka.Writer
	name   string
	log    *logrus.Logger
}

func NewKafkaPublisher(brokers []string, topic, producerName string, log *logrus.Logger) *KafkaPublisher {
	p := &KafkaPublisher{name: producerName, log: log}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.WithError(err).Error("order event publish failed")
			}
		},
	}
	return p
}

var _ port.EventPublisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, o *domain.Order) {
	payload, err := json.Marshal(OrderPlacedPayload{
		OrderID: o.ID,
		User:    o.User,
		Lines:   o.Lines,
		Total:   o.Total.String(),
	})
	if err != nil {
		p.log.WithError(err).Error("marshal order event payload")
		return
	}
	value, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventOrderPlaced,
		EventVersion: 1,
		OccurredAt:   time.Now(),
		Producer:     p.name,
		Payload:      payload,
	})
	if err != nil {
		p.log.WithError(err).Error("marshal order event envelope")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.log.WithFields(logrus.Fields{"order_id": o.ID}).WithError(err).Error("order event publish failed")
	}
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) OrderPlaced(context.Context, *domain.Order) {}
