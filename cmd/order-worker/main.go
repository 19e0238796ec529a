// Command order-worker consumes order events and keeps a running ledger of
// orders and units sold.
package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/logx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("load config")
	}
	logx.Init(logx.Options{Environment: cfg.Environment()})
	if cfg.AMQP.URL == "" {
		logx.Fatal().Msg("AMQP_URL is empty")
	}

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		logx.Fatal().Err(err).Msg("connect rabbitmq")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logx.Fatal().Err(err).Msg("open channel")
	}
	if err := events.DeclareQueue(ch, cfg.AMQP.Queue); err != nil {
		logx.Fatal().Err(err).Msg("declare queue")
	}
	ch.Close()

	ledger := events.NewLedger()
	var wg sync.WaitGroup
	for i := 1; i <= cfg.AMQP.WorkerCount; i++ {
		w, err := events.NewWorker(i, conn, cfg.AMQP.Queue, ledger)
		if err != nil {
			logx.Fatal().Err(err).Msg("create worker")
		}
		wg.Add(1)
		go w.Start(&wg)
	}
	logx.Info().Int("workers", cfg.AMQP.WorkerCount).Str("queue", cfg.AMQP.Queue).Msg("order worker running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logx.Info().Msg("stopping workers")
	conn.Close()
	wg.Wait()

	sum := ledger.Summary()
	logx.Info().
		Interface("counts", sum.Counts).
		Interface("sold", sum.Sold).
		Msg("ledger summary")
}
