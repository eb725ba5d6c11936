// Package amqp publishes domain events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EventPublisher = (*Publisher)(nil)

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends each event as a persistent JSON message whose routing key
// is the event name. A single channel is shared, so publishes are serialized.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       channel
	exchange string
}

// NewPublisher dials url and declares exchange as a durable topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp091.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish implements driven.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event driven.Event) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, event.RoutingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.RoutingKey, err)
	}
	return nil
}

// Close closes the channel and then the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chErr := p.ch.Close()
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close amqp connection: %w", err)
		}
	}
	if chErr != nil {
		return fmt.Errorf("close amqp channel: %w", chErr)
	}
	return nil
}

func buildPublishing(event driven.Event) (amqp091.Publishing, error) {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal %s payload: %w", event.RoutingKey, err)
	}

	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt.UTC(),
		Type:         event.RoutingKey,
		Body:         body,
	}, nil
}
