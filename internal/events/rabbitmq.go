package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// RabbitMQEmitter publishes events to a topic exchange, routed by event name.
type RabbitMQEmitter struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       publisher
	exchange string
}

// DialRabbitMQ connects to the broker and declares a durable topic exchange.
func DialRabbitMQ(url, exchange string) (*RabbitMQEmitter, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}
	return &RabbitMQEmitter{conn: conn, ch: ch, exchange: exchange}, nil
}

func (e *RabbitMQEmitter) Emit(ctx context.Context, name string, payload any) error {
	env := NewEnvelope(name, payload)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", name, err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    env.ID,
		Timestamp:    env.OccurredAt,
		Type:         name,
		Body:         body,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ch.PublishWithContext(ctx, e.exchange, name, false, false, msg); err != nil {
		return fmt.Errorf("publishing event %s: %w", name, err)
	}
	return nil
}

func (e *RabbitMQEmitter) Close() error {
	if e.conn == nil {
		return nil
	}
	return e.conn.Close()
}
