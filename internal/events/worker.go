package events

import (
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/internal/logx"
)

// acknowledger is the part of amqp.Delivery a worker settles messages with.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Worker consumes the event queue on its own channel, one message at a time.
type Worker struct {
	id        int
	channel   *amqp.Channel
	queueName string
	ledger    *Ledger
}

func NewWorker(id int, conn *amqp.Connection, queueName string, ledger *Ledger) (*Worker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel for worker %d: %w", id, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos for worker %d: %w", id, err)
	}
	return &Worker{id: id, channel: ch, queueName: queueName, ledger: ledger}, nil
}

// Start consumes until the channel or connection closes.
func (w *Worker) Start(wg *sync.WaitGroup) {
	defer wg.Done()
	defer w.channel.Close()

	msgs, err := w.channel.Consume(w.queueName, fmt.Sprintf("order-worker-%d", w.id),
		false, false, false, false, nil)
	if err != nil {
		logx.Error().Err(err).Int("worker", w.id).Msg("register consumer")
		return
	}

	logx.Info().Int("worker", w.id).Msg("worker started")
	for msg := range msgs {
		w.handle(msg.Body, msg)
	}
	logx.Info().Int("worker", w.id).Msg("worker stopped")
}

func (w *Worker) handle(body []byte, d acknowledger) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil || ev.Type == "" {
		logx.Warn().Err(err).Int("worker", w.id).Msg("dropping malformed event")
		_ = d.Nack(false, false)
		return
	}

	w.ledger.Record(ev)

	if err := d.Ack(false); err != nil {
		logx.Error().Err(err).Int("worker", w.id).Int64("orderNo", ev.OrderNo).Msg("ack failed")
		return
	}
	logx.Debug().Int("worker", w.id).Str("type", string(ev.Type)).Int64("orderNo", ev.OrderNo).Msg("event processed")
}

func (w *Worker) Stop() {
	if w.channel != nil {
		w.channel.Close()
	}
}
