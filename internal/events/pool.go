package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/internal/logx"
)

var (
	ErrPoolExhausted = errors.New("no channels available in pool")
	ErrPoolClosed    = errors.New("channel pool closed")
)

// ChannelPool hands out channels of one connection, each with the queue declared.
type ChannelPool struct {
	conn      *amqp.Connection
	channels  chan *amqp.Channel
	mu        sync.Mutex
	closed    bool
	queueName string
}

// NewChannelPool dials url and opens size channels with queueName declared.
func NewChannelPool(url, queueName string, size int) (*ChannelPool, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	p := &ChannelPool{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		queueName: queueName,
	}
	for i := range size {
		ch, err := p.open()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open channel %d: %w", i, err)
		}
		p.channels <- ch
	}

	logx.Info().Int("size", size).Str("queue", queueName).Msg("amqp channel pool ready")
	return p, nil
}

func (p *ChannelPool) open() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := DeclareQueue(ch, p.queueName); err != nil {
		ch.Close()
		return nil, err
	}
	return ch, nil
}

// DeclareQueue declares the durable event queue. It is idempotent.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// Get takes a channel from the pool, waiting for one to be put back until
// ctx is done. A channel closed by the broker is replaced.
func (p *ChannelPool) Get(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if ch.IsClosed() {
			return p.open()
		}
		return ch, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrPoolExhausted, ctx.Err())
	}
}

// Put returns ch to the pool, closing it when the pool is full or closed.
func (p *ChannelPool) Put(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		ch.Close()
	}
}

func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	logx.Info().Msg("amqp channel pool closed")
}
