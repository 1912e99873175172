// Package service provides the outbound adapters of the domain layer.
// Publishing errors are logged and returned so callers can ignore them
// without interrupting the main request flow.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	logging "github.com/op/go-logging"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/restaurant-pos/internal/queue"
)

var log = logging.MustGetLogger("service")

// AMQPPublisher sends every event to the durable queue named after its
// type, through the default exchange.
type AMQPPublisher struct {
	URL string
}

// NewAMQPPublisher returns a publisher for url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url}
}

// Publish dials the broker, declares the queue and sends ev as a
// persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warningf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warningf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(ev.Type, true, false, false, false, nil); err != nil {
		log.Warningf("rabbitmq: queue declare %s failed: %v", ev.Type, err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ev.Type, false, false, pub); err != nil {
		log.Warningf("rabbitmq: publish %s failed: %v", ev.Type, err)
		return err
	}
	return nil
}

// NopPublisher drops every event.  It is used when RabbitMQ is disabled.
type NopPublisher struct{}

// Publish implements the publisher interface.
func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }
