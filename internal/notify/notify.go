// Package notify delivers customer and operator notifications.
package notify

import (
	"context"
	"fmt"

	"annies-bakery/internal/config"

	"github.com/rs/zerolog"
)

// Notification kinds.
const (
	KindOrderConfirmation = "order_confirmation"
	KindCustomOrder       = "custom_order"
	KindContact           = "contact"
)

// Message is one plain-text notification. An empty To addresses the operator.
type Message struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	To      string `json:"to"`
}

// Sender accepts messages for delivery. Notify reports true when the message
// was accepted and false when it was skipped or failed; it never returns an error.
type Sender interface {
	Notify(ctx context.Context, msg Message) bool
}

// New builds the sender selected by cfg.Driver. The returned close function
// releases any broker connection.
func New(cfg config.NotifyConfig, logger zerolog.Logger) (Sender, func() error, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogSender(cfg.AdminEmail, logger), noopClose, nil
	case "smtp":
		return NewSMTPSender(cfg, logger), noopClose, nil
	case "amqp":
		publisher, err := NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create notification publisher: %w", err)
		}
		return NewAMQPSender(publisher, cfg, logger), publisher.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown notify driver: %s", cfg.Driver)
	}
}

func noopClose() error { return nil }

func recipient(to, admin string) string {
	if to != "" {
		return to
	}
	return admin
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	admin  string
	logger zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(adminEmail string, logger zerolog.Logger) *LogSender {
	return &LogSender{
		admin:  adminEmail,
		logger: logger.With().Str("component", "notify").Str("driver", "log").Logger(),
	}
}

// Notify implements Sender.
func (s *LogSender) Notify(_ context.Context, msg Message) bool {
	s.logger.Info().
		Str("kind", msg.Kind).
		Str("to", recipient(msg.To, s.admin)).
		Str("subject", msg.Subject).
		Msg(msg.Body)
	return true
}
