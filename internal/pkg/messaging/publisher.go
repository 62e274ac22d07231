package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes domain events to the message bus
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// channel is the part of *amqp.Channel the publisher uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher publishes JSON events to a topic exchange, routed by event type
type AMQPPublisher struct {
	channel  channel
	exchange string
	source   string
}

// NewPublisher declares exchange and returns a publisher bound to it
func NewPublisher(rmq *RabbitMQ, exchange, source string) (*AMQPPublisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		channel:  rmq.Channel(),
		exchange: exchange,
		source:   source,
	}, nil
}

// Publish publishes an event to the exchange
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	correlationID := getCorrelationID(ctx)

	event, err := NewEvent(eventType, p.source, correlationID, data)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		eventType,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     event.ID,
			CorrelationId: correlationID,
			Timestamp:     event.Timestamp,
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("event published",
		"event_type", eventType,
		"event_id", event.ID,
		"correlation_id", correlationID,
	)

	return nil
}

// NoopPublisher drops every event. Used when no broker URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	return nil
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// getCorrelationID prefers an explicit id, then the chi request id
func getCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok && id != "" {
		return id
	}
	return middleware.GetReqID(ctx)
}
