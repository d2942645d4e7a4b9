package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is an event envelope published to Kafka
type Message struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	AggregateID string          `json:"aggregateId,omitempty"`
	Time        time.Time       `json:"time"`
	Data        json.RawMessage `json:"data"`
}

// Producer handles publishing messages to Kafka topics
type Producer struct {
	writers map[string]*kafka.Writer
	config  *Config
}

// NewProducer creates a new Kafka producer
func NewProducer(config *Config) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		config:  config,
	}
}

// getWriter returns a writer for the specified topic, creating one if necessary
func (p *Producer) getWriter(topic string) *kafka.Writer {
	if writer, exists := p.writers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    p.config.BatchSize,
		BatchTimeout: p.config.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(p.config.RequiredAcks),
		Async:        false,
	}

	p.writers[topic] = writer
	return writer
}

// Publish publishes an event envelope to the specified topic, keyed by the
// aggregate ID so events for one shipment stay ordered within a partition
func (p *Producer) Publish(ctx context.Context, topic string, msg Message) error {
	if msg.Time.IsZero() {
		msg.Time = time.Now().UTC()
	}
	if msg.Source == "" {
		msg.Source = p.config.ClientID
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	kafkaMsg := kafka.Message{
		Key:   []byte(msg.AggregateID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(msg.ID)},
			{Key: "event-type", Value: []byte(msg.Type)},
			{Key: "event-source", Value: []byte(msg.Source)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: msg.Time,
	}

	writer := p.getWriter(topic)
	if err := writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}

	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	var lastErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close writer for topic %s: %w", topic, err)
		}
	}
	return lastErr
}
