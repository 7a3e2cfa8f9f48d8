package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"StockAnalyzer/internal/model"
)

// EventSignalEmitted is the event type published for each new signal.
const EventSignalEmitted = "SIGNAL_EMITTED"

// SignalEvent is the Kafka payload for a new trading signal.
type SignalEvent struct {
	EventType string               `json:"event_type"`
	RunID     string               `json:"run_id,omitempty"`
	Symbol    string               `json:"symbol"`
	Signal    *model.TradingSignal `json:"signal"`
	Timestamp time.Time            `json:"timestamp"`
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes signal events keyed by symbol.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher writing to topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

// PublishSignal publishes a SIGNAL_EMITTED event for sig.
func (p *KafkaPublisher) PublishSignal(ctx context.Context, runID, symbol string, sig *model.TradingSignal) error {
	event := SignalEvent{
		EventType: EventSignalEmitted,
		RunID:     runID,
		Symbol:    symbol,
		Signal:    sig,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(symbol),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
