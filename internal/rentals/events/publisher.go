package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carrental/pkg/config"
	"carrental/pkg/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	EventPickupRegistered = "rental.pickup_registered"
	EventReturnRegistered = "rental.return_registered"

	headerEventID   = "event-id"
	headerEventType = "event-type"
	headerSource    = "source"
	headerTimestamp = "timestamp"
)

// RentalEvent is the wire payload for lifecycle events. Price is a decimal
// string and only present on return events.
type RentalEvent struct {
	BookingNumber      string     `json:"booking_number"`
	RegistrationNumber string     `json:"registration_number"`
	CustomerID         string     `json:"customer_id"`
	Category           string     `json:"category"`
	Status             string     `json:"status"`
	PickupTime         time.Time  `json:"pickup_time"`
	PickupMeter        int64      `json:"pickup_meter"`
	ReturnTime         *time.Time `json:"return_time,omitempty"`
	ReturnMeter        *int64     `json:"return_meter,omitempty"`
	Price              string     `json:"price,omitempty"`
	OccurredAt         time.Time  `json:"occurred_at"`
}

type Publisher interface {
	PublishPickupRegistered(ctx context.Context, rental *model.Rental) error
	PublishReturnRegistered(ctx context.Context, rental *model.Rental) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	source string
}

func NewKafkaPublisher(cfg *config.Config, source string) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{}, // key by booking number for ordering
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
	}

	return &kafkaPublisher{
		writer: writer,
		source: source,
	}
}

func (p *kafkaPublisher) PublishPickupRegistered(ctx context.Context, rental *model.Rental) error {
	return p.publish(ctx, EventPickupRegistered, rental)
}

func (p *kafkaPublisher) PublishReturnRegistered(ctx context.Context, rental *model.Rental) error {
	return p.publish(ctx, EventReturnRegistered, rental)
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType string, rental *model.Rental) error {
	now := time.Now().UTC()

	event := RentalEvent{
		BookingNumber:      rental.BookingNumber,
		RegistrationNumber: rental.RegistrationNumber,
		CustomerID:         rental.CustomerID,
		Category:           string(rental.Category),
		Status:             string(rental.Status),
		PickupTime:         rental.PickupTime,
		PickupMeter:        rental.PickupMeter,
		ReturnTime:         rental.ReturnTime,
		ReturnMeter:        rental.ReturnMeter,
		OccurredAt:         now,
	}
	if rental.Price != nil {
		event.Price = rental.Price.String()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(rental.BookingNumber),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: headerEventID, Value: []byte(uuid.New().String())},
			{Key: headerEventType, Value: []byte(eventType)},
			{Key: headerSource, Value: []byte(p.source)},
			{Key: headerTimestamp, Value: []byte(now.Format(time.RFC3339))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// noopPublisher is used when no brokers are configured.
type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishPickupRegistered(context.Context, *model.Rental) error { return nil }
func (noopPublisher) PublishReturnRegistered(context.Context, *model.Rental) error { return nil }
func (noopPublisher) Close() error                                                 { return nil }
