// Package service publishes domain events to RabbitMQ.  Errors are logged
// and returned so callers may ignore them without interrupting the
// request that produced the event.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/phishing-awareness/internal/queue"
)

// Publisher dials the broker per publish, so a broker outage never holds
// a connection open across requests.
type Publisher struct {
	URL string

	// publish is replaced in tests.
	publish func(ctx context.Context, url, queueName string, body []byte) error
}

func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url, publish: publishAMQP}
}

// PublishCampaignDispatched publishes ev to the campaign.dispatched queue
// as a persistent message.
func (p *Publisher) PublishCampaignDispatched(ctx context.Context, ev queue.CampaignDispatchedEvent) error {
	log := zerolog.Ctx(ctx)
	body, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("rabbitmq: marshal event failed")
		return err
	}
	if err := p.publish(ctx, p.URL, queue.CampaignDispatchedQueue, body); err != nil {
		log.Error().Err(err).Uint64("campaign_id", ev.CampaignID).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}

func publishAMQP(ctx context.Context, url, queueName string, body []byte) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
