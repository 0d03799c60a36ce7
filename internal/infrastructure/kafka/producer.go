package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"cartline/internal/config"
	"cartline/internal/domain"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewProducer(cfg config.KafkaConfig, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return NewProducerWithWriter(writer, logger)
}

func NewProducerWithWriter(writer MessageWriter, logger *zap.Logger) *Producer {
	return &Producer{writer: writer, logger: logger}
}

// PublishOrderSubmitted writes the event keyed by order so all events of one
// order land on the same partition.
func (p *Producer) PublishOrderSubmitted(ctx context.Context, event domain.OrderSubmittedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := fmt.Sprintf("order-%d", event.OrderID)
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  event.Timestamp,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.logger.Info("published event", zap.String("key", key), zap.String("eventType", event.EventType))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderSubmitted(context.Context, domain.OrderSubmittedEvent) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
