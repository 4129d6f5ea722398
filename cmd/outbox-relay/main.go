// Package main provides the outbox relay service entry point.
// Moves committed outbox entries onto the broker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hedfirst/go-orderview/internal/config"
	"github.com/hedfirst/go-orderview/internal/infrastructure/postgres"
	"github.com/hedfirst/go-orderview/internal/infrastructure/redpanda"
	"github.com/hedfirst/go-orderview/internal/observability/metrics"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("connected to database")

	m := metrics.New()

	producerCfg := redpanda.DefaultProducerConfig()
	producerCfg.Brokers = cfg.Brokers()

	producer, err := redpanda.NewProducer(producerCfg, logger)
	if err != nil {
		logger.Fatal("producer creation failed", zap.Error(err))
	}
	defer producer.Close()
	logger.Info("connected to broker", zap.Strings("brokers", producerCfg.Brokers))

	outbox := postgres.NewOutbox(pool, &producerAdapter{producer, m}, postgres.DefaultOutboxConfig(), logger)
	outbox.Start()
	logger.Info("outbox relay started")

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pending, err := outbox.PendingCount(ctx)
				if err == nil {
					m.OutboxPending.Set(float64(pending))
				}
			case <-stop:
				return
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	close(stop)
	outbox.Stop()
	logger.Info("outbox relay stopped")
}

// producerAdapter adapts the producer to the OutboxPublisher interface.
type producerAdapter struct {
	producer *redpanda.Producer
	metrics  *metrics.Metrics
}

func (a *producerAdapter) Publish(ctx context.Context, topic, key string, value []byte) error {
	if err := a.producer.ProduceMessage(ctx, topic, key, value); err != nil {
		return err
	}
	a.metrics.KafkaMessagesProduced.Inc()
	return nil
}
