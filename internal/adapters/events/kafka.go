package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSink exports lifecycle events to a Kafka topic.
type KafkaSink struct {
	writer kafkaWriter
}

type envelope struct {
	Type string       `json:"type"`
	At   string       `json:"at"`
	Data domain.Event `json:"data"`
}

func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		trimmed := strings.TrimSpace(b)
		if trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka topic required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaSink{writer: w}, nil
}

// Handle is an events.Handler writing ev keyed by its topic.
func (s *KafkaSink) Handle(ctx context.Context, ev domain.Event) error {
	if s == nil || s.writer == nil {
		return fmt.Errorf("kafka sink not initialized")
	}
	value, err := json.Marshal(envelope{
		Type: ev.Topic(),
		At:   time.Now().UTC().Format(time.RFC3339Nano),
		Data: ev,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", ev.Topic(), err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Topic()), Value: value}); err != nil {
		return fmt.Errorf("failed to export event %s: %w", ev.Topic(), err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
