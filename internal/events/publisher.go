package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// AMQPPublisher publishes events to one queue through a ChannelPool.
type AMQPPublisher struct {
	pool      *ChannelPool
	queueName string
}

func NewAMQPPublisher(pool *ChannelPool, queueName string) *AMQPPublisher {
	return &AMQPPublisher{pool: pool, queueName: queueName}
}

// Publish sends ev as a persistent JSON message on the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ch, err := p.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	defer p.pool.Put(ch)

	err = ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         string(ev.Type),
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
