// Package events publishes intake lifecycle events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventType is the routing key of an event
type EventType string

const (
	EventIntakeSubmitted EventType = "intake.submitted"
	EventIntakeResent    EventType = "intake.resent"
)

// IntakeEvent describes a submission after a delivery attempt
type IntakeEvent struct {
	EventID      string    `json:"event_id"`
	EventType    EventType `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	SubmissionID int64     `json:"submission_id"`
	Reference    string    `json:"reference"`
	Location     string    `json:"location"`
	InternalCode string    `json:"internal_code,omitempty"`
	LevelTitle   string    `json:"level_title,omitempty"`
	Status       string    `json:"status"`
	MessageID    string    `json:"message_id,omitempty"`
}

// NewIntakeEvent stamps an event with a fresh ID and the current time
func NewIntakeEvent(t EventType) IntakeEvent {
	return IntakeEvent{
		EventID:   uuid.NewString(),
		EventType: t,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher sends intake events
type Publisher interface {
	Publish(ctx context.Context, event IntakeEvent) error
	Close() error
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable topic exchange
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  amqpChannel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher connects to RabbitMQ and declares the exchange
func NewAMQPPublisher(uri, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("event publisher connected", zap.String("exchange", exchange))
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event IntakeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange,              // exchange
		string(event.EventType), // routing key
		false,                   // mandatory
		false,                   // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.EventID,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published event", zap.String("routing_key", string(event.EventType)), zap.Int64("submission_id", event.SubmissionID))
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Warn("failed to close channel", zap.Error(err))
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher drops events. Used when RABBITMQ_URI is unset.
type NopPublisher struct {
	logger *zap.Logger
}

func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) Publish(ctx context.Context, event IntakeEvent) error {
	p.logger.Debug("event publishing is disabled, skipping event", zap.String("routing_key", string(event.EventType)))
	return nil
}

func (p *NopPublisher) Close() error { return nil }
