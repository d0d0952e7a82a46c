package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joao-fontenele/posflow/internal/messaging"
	"github.com/joao-fontenele/posflow/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	emailServiceURL := os.Getenv("EMAIL_SERVICE_URL")
	if emailServiceURL == "" {
		logger.Error("EMAIL_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	ordersServiceURL := os.Getenv("ORDERS_SERVICE_URL")
	if ordersServiceURL == "" {
		logger.Error("ORDERS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")

	completedConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderCompleted, "receipt-worker")
	defer func() { _ = completedConsumer.Close() }()

	returnedConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderReturned, "receipt-worker")
	defer func() { _ = returnedConsumer.Close() }()

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	receiptHandler := worker.NewReceiptHandler(emailServiceURL, ordersServiceURL, httpClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting receipt worker", "brokers", brokers)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := completedConsumer.Consume(ctx, receiptHandler.HandleCompleted); err != nil {
			errs <- err
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		if err := returnedConsumer.Consume(ctx, receiptHandler.HandleReturned); err != nil {
			errs <- err
			cancel()
		}
	}()

	wg.Wait()
	close(errs)

	for err := range errs {
		if ctx.Err() == context.Canceled {
			continue
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}

	logger.Info("consumers stopped")
}
