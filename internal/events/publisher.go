package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderConfirmed     = "order.confirmed"
	TypeOrderStatusChanged = "order.status_changed"
)

var _ port.OrderEventPublisher = (*Publisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes order lifecycle events to Kafka, keyed by order id so
// events of one order stay in one partition.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w)
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

type orderEvent struct {
	EventType      string          `json:"event_type"`
	OrderID        string          `json:"order_id"`
	CheckoutID     string          `json:"checkout_id"`
	UserID         string          `json:"user_id"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	ItemCount      int             `json:"item_count"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func (p *Publisher) OrderConfirmed(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, TypeOrderConfirmed, order, "")
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, order domain.Order, from domain.OrderStatus) error {
	return p.publish(ctx, TypeOrderStatusChanged, order, from)
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("writer.Close: %w", err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, eventType string, order domain.Order, from domain.OrderStatus) error {
	payload, err := json.Marshal(orderEvent{
		EventType:      eventType,
		OrderID:        order.ID.String(),
		CheckoutID:     order.CheckoutID.String(),
		UserID:         order.UserID,
		Status:         order.Status.String(),
		PreviousStatus: string(from),
		Total:          order.Total.Amount,
		Currency:       order.Total.Currency.String(),
		ItemCount:      domain.ItemCount(order.Items),
		OccurredAt:     p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writer.WriteMessages[%s]: %w", eventType, err)
	}

	return nil
}
