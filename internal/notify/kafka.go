package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"alertengine/internal/config"
	"alertengine/internal/domain"
	"alertengine/internal/listener"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes lifecycle changes to a Kafka topic.
// Params: writer bound to brokers and topic.
// Returns: best-effort downstream publisher.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates the Kafka lifecycle publisher.
// Params: notify Kafka config and logger.
// Returns: publisher with a lazy-connecting writer.
func NewKafkaPublisher(cfg config.KafkaNotifyConfig, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Listener returns the fan-out callback for this publisher.
// Params: none.
// Returns: listener writing one keyed message per change.
func (p *KafkaPublisher) Listener() listener.Func {
	return func(change domain.Change) error {
		message, err := buildKafkaMessage(change)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.writer.WriteMessages(ctx, message); err != nil {
			return fmt.Errorf("kafka publish %s: %w", change.Kind, err)
		}
		return nil
	}
}

// buildKafkaMessage encodes one change keyed by tenant for partition affinity.
// Params: change payload.
// Returns: Kafka message with tenant and kind headers.
func buildKafkaMessage(change domain.Change) (kafka.Message, error) {
	payload, err := json.Marshal(change.Alert)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode alert: %w", err)
	}
	return kafka.Message{
		Key:   []byte(change.TenantID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "tenant_id", Value: []byte(change.TenantID)},
			{Key: "kind", Value: []byte(change.Kind)},
		},
	}, nil
}

// Close flushes and closes the writer.
// Params: none.
// Returns: close error.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
