package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var _ Publisher = (*RabbitMQPublisher)(nil)

type RabbitMQPublisher struct {
	client *RabbitMQ
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event OpportunityEvent) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid opportunity event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity event: %w", err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		Type:          string(event.Type),
		MessageId:     fmt.Sprintf("%s:%s:%d", event.Type, event.OpportunityID, event.OccurredAt.UnixNano()),
		CorrelationId: event.CorrelationID,
		Body:          payload,
	}

	exchange := p.client.Exchange()
	if err := ch.PublishWithContext(ctx, exchange, event.Type.RoutingKey(), false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish %s to exchange %q: %w", event.Type, exchange, err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
