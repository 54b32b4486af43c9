package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lex-technology/workwise-backend/internal/bootstrap"
	"github.com/lex-technology/workwise-backend/internal/shared/config"
	"github.com/lex-technology/workwise-backend/internal/workerproc"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	if app.QueueConsumer == nil {
		log.Fatal("ANALYSIS_QUEUE_BACKEND must be sqs or amqp for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := &workerproc.Processor{Analyses: app.AnalysesService}

	log.Printf("worker started backend=%s queue=%s", cfg.QueueBackend, queueName(cfg))
	err = app.QueueConsumer.Consume(ctx, processor.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consume: %v", err)
	}
	log.Printf("worker stopped")
}

func queueName(cfg config.Config) string {
	if cfg.QueueBackend == "amqp" {
		return cfg.AMQPQueue
	}
	return cfg.SQSQueueURL
}
