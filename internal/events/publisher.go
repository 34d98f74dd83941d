package events

import (
	"context"
	"encoding/json"

	"github.com/novatix/novatix-backend/pkg/logger"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Message is anything publishable to a topic with a partition key
type Message interface {
	Key() string
}

// Publisher publishes domain events to downstream consumers
type Publisher interface {
	// Publish sends one event to the topic. Best effort: failures are
	// logged and never fail the originating request.
	Publish(ctx context.Context, topic string, msg Message)
	// Close flushes buffered records and releases the client
	Close()
}

// KafkaPublisher implements Publisher using franz-go
type KafkaPublisher struct {
	client *kgo.Client
	log    *logger.Logger
}

// NewKafkaPublisher creates a publisher connected to the given brokers
func NewKafkaPublisher(brokers []string, log *logger.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1 << 20),
		kgo.RequiredAcks(kgo.LeaderAck()),
		kgo.DisableIdempotentWrite(),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, log: log}, nil
}

// Publish sends one event to the topic
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("failed to marshal event", zap.String("topic", topic), zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(msg.Key()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Error("failed to publish event",
				zap.String("topic", topic),
				zap.String("key", string(r.Key)),
				zap.Error(err),
			)
		}
	})
}

// Close flushes buffered records and releases the client
func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// NoopPublisher discards every event. Used when Kafka is disabled and in tests.
type NoopPublisher struct{}

// NewNoopPublisher creates a NoopPublisher
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish discards the event
func (p *NoopPublisher) Publish(ctx context.Context, topic string, msg Message) {}

// Close is a no-op
func (p *NoopPublisher) Close() {}
