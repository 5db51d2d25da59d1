package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadSubmittedPayload is published once a prospect finalizes the funnel
// with consent. The back-office worker turns it into a notification mail.
type LeadSubmittedPayload struct {
	ProspectID   string `json:"prospect_id"`
	CompanyName  string `json:"company_name"`
	SirenNumber  string `json:"siren_number"`
	ActivityType string `json:"activity_type"`

	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`

	CompletionRate int       `json:"completion_rate"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishLeadSubmitted(ctx context.Context, payload LeadSubmittedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal lead payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}

	return nil
}
