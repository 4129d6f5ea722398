// Package redpanda provides Kafka-compatible streaming with franz-go for
// the order status event flow.
package redpanda

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Topic names for the order view services. Payment, fulfillment and
// review collaborators publish child-status changes; this system
// publishes derived parent statuses.
const (
	TopicChildStatusEvents = "orders.child-status"
	TopicStatusDerived     = "orders.status-derived"
	TopicDeadLetter        = "dead.letter"
)

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	Configs           map[string]*string
}

// DefaultTopicConfigs returns the topic set the services expect.
func DefaultTopicConfigs() []TopicConfig {
	ptr := func(s string) *string { return &s }

	retention := map[string]*string{
		"retention.ms":     ptr("604800000"), // 7 days
		"cleanup.policy":   ptr("delete"),
		"compression.type": ptr("lz4"),
	}

	return []TopicConfig{
		{
			Name:              TopicChildStatusEvents,
			Partitions:        12,
			ReplicationFactor: 1, // 3 in production
			Configs:           retention,
		},
		{
			Name:              TopicStatusDerived,
			Partitions:        6,
			ReplicationFactor: 1,
			Configs:           retention,
		},
		{
			Name:              TopicDeadLetter,
			Partitions:        1,
			ReplicationFactor: 1,
			Configs: map[string]*string{
				"retention.ms":   ptr("2592000000"), // 30 days
				"cleanup.policy": ptr("delete"),
			},
		},
	}
}

// EnsureTopics creates any missing topics. Existing topics are left
// untouched.
func EnsureTopics(ctx context.Context, brokers []string, configs []TopicConfig, logger *zap.Logger) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return fmt.Errorf("create admin client: %w", err)
	}
	defer client.Close()

	adm := kadm.NewClient(client)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	existing, err := adm.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}

	for _, cfg := range configs {
		if existing.Has(cfg.Name) {
			continue
		}
		_, err := adm.CreateTopic(ctx, cfg.Partitions, cfg.ReplicationFactor, cfg.Configs, cfg.Name)
		if err != nil {
			return fmt.Errorf("create topic %s: %w", cfg.Name, err)
		}
		logger.Info("topic created",
			zap.String("topic", cfg.Name),
			zap.Int32("partitions", cfg.Partitions))
	}

	return nil
}
