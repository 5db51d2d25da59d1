package queue

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadNotifier is whatever tells the sales team about a submitted lead.
// Today that is the SMTP sender.
type LeadNotifier interface {
	SendNewLead(payload LeadSubmittedPayload) error
}

type Worker struct {
	Channel  *amqp.Channel
	Notifier LeadNotifier
}

func NewWorker(ch *amqp.Channel, notifier LeadNotifier) *Worker {
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("failed to register RabbitMQ consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload LeadSubmittedPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("[WORKER] invalid JSON, rejecting without requeue: %s", err)
				// Malformed message. Requeueing would wedge the queue.
				d.Nack(false, false)
				continue
			}

			log.Printf("[WORKER] new lead %s (%s)", payload.ProspectID, payload.CompanyName)

			if err := w.Notifier.SendNewLead(payload); err != nil {
				log.Printf("[WORKER] notification failed: %s", err)
				// Dead-letter it; the DLQ keeps the lead from evaporating.
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Worker waiting on queue '%s'", queueName)
	<-forever
}
