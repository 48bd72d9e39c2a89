package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"annies-bakery/internal/config"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// EventNotificationRequested is the routing key of published notifications.
const EventNotificationRequested = "notification.requested"

// Publisher publishes raw payloads to a message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// RabbitPublisher publishes to a durable fanout exchange.
type RabbitPublisher struct {
	conn     *amqp091.Connection
	exchange string
}

// NewRabbitPublisher dials url and declares exchange.
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &RabbitPublisher{conn: conn, exchange: exchange}, nil
}

// Publish sends payload as a persistent JSON message.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	return ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
}

// Close closes the broker connection.
func (p *RabbitPublisher) Close() error {
	return p.conn.Close()
}

// Envelope is the JSON body of a published notification.
type Envelope struct {
	Type        string `json:"type"`
	From        string `json:"from"`
	RequestedAt string `json:"requested_at"`
	Message
}

// AMQPSender hands notifications to an out-of-process mailer via the broker.
type AMQPSender struct {
	publisher Publisher
	from      string
	admin     string
	now       func() time.Time
	logger    zerolog.Logger
}

// NewAMQPSender creates a sender publishing through publisher.
func NewAMQPSender(publisher Publisher, cfg config.NotifyConfig, logger zerolog.Logger) *AMQPSender {
	return &AMQPSender{
		publisher: publisher,
		from:      cfg.From,
		admin:     cfg.AdminEmail,
		now:       time.Now,
		logger:    logger.With().Str("component", "notify").Str("driver", "amqp").Logger(),
	}
}

// Notify implements Sender.
func (s *AMQPSender) Notify(ctx context.Context, msg Message) bool {
	msg.To = recipient(msg.To, s.admin)

	payload, err := json.Marshal(Envelope{
		Type:        EventNotificationRequested,
		From:        s.from,
		RequestedAt: s.now().UTC().Format(time.RFC3339),
		Message:     msg,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("kind", msg.Kind).Msg("failed to encode notification")
		return false
	}

	if err := s.publisher.Publish(ctx, EventNotificationRequested, payload); err != nil {
		s.logger.Error().Err(err).Str("kind", msg.Kind).Msg("failed to publish notification")
		return false
	}

	s.logger.Debug().Str("kind", msg.Kind).Str("to", msg.To).Msg("notification published")
	return true
}
