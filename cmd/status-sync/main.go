// Package main provides the status sync service entry point.
// Consumes child-status events and re-derives cached parent statuses.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hedfirst/go-orderview/internal/config"
	"github.com/hedfirst/go-orderview/internal/infrastructure/postgres"
	"github.com/hedfirst/go-orderview/internal/infrastructure/redpanda"
	"github.com/hedfirst/go-orderview/internal/observability/metrics"
	"github.com/hedfirst/go-orderview/internal/observability/tracing"
	"github.com/hedfirst/go-orderview/internal/statussync"
	"github.com/hedfirst/go-orderview/pkg/idempotency"
	"github.com/hedfirst/go-orderview/pkg/workerpool"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	tracerCfg := tracing.DefaultConfig("status-sync")
	if cfg.OTLPEndpoint != "" {
		tracerCfg.OTLPEndpoint = cfg.OTLPEndpoint
	}
	if cfg.Env != "" {
		tracerCfg.Environment = cfg.Env
	}
	tracer, err := tracing.Init(ctx, tracerCfg)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tracer.Shutdown(context.Background())
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	m := metrics.New()

	brokers := cfg.Brokers()
	if err := redpanda.EnsureTopics(ctx, brokers, redpanda.DefaultTopicConfigs(), logger); err != nil {
		logger.Fatal("topic creation failed", zap.Error(err))
	}

	inbox := idempotency.NewInbox(pool, idempotency.DefaultInboxConfig(), logger)
	inbox.StartCleanup()
	defer inbox.Stop()

	orderRepo := postgres.NewOrderRepository(pool, logger)
	handler := statussync.NewHandler(orderRepo, inbox, m, logger)

	workerPool, err := workerpool.New(workerpool.DefaultConfig(), func(ctx context.Context, task *workerpool.Task) *workerpool.Result {
		if err := handler.Handle(ctx, task.Payload); err != nil {
			return &workerpool.Result{TaskID: task.ID, Success: false, Error: err}
		}
		return &workerpool.Result{TaskID: task.ID, Success: true}
	}, logger)
	if err != nil {
		logger.Fatal("worker pool creation failed", zap.Error(err))
	}

	workerPool.Start()
	defer workerPool.Stop()

	consumerCfg := redpanda.DefaultConsumerConfig()
	consumerCfg.Brokers = brokers
	consumerCfg.Topics = []string{redpanda.TopicChildStatusEvents}

	consumer, err := redpanda.NewConsumer(consumerCfg, func(ctx context.Context, msg *redpanda.ConsumedMessage) error {
		m.KafkaMessagesConsumed.Inc()
		return workerPool.Submit(&workerpool.Task{
			ID:      string(msg.Key),
			Payload: msg.Value,
			Context: ctx,
		})
	}, logger)
	if err != nil {
		logger.Fatal("consumer creation failed", zap.Error(err))
	}

	consumer.Start()
	logger.Info("status sync started", zap.Strings("brokers", brokers))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	consumer.Stop()
	logger.Info("status sync stopped")
}
