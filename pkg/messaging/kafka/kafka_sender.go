package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tradevine/matchcore/pkg/messaging"
)

// KafkaMessageSender implements MessageSender using Kafka
type KafkaMessageSender struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaMessageSender creates a new Kafka message sender
func NewKafkaMessageSender(brokerAddr, topic string) (*KafkaMessageSender, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerAddr),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaMessageSender{
		writer: writer,
		topic:  topic,
	}, nil
}

// SendMatchMessage sends a match result to Kafka, keyed by order ID so
// one order's results stay in partition order.
func (k *KafkaMessageSender) SendMatchMessage(ctx context.Context, msg *messaging.MatchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal match message: %w", err)
	}

	kafkaMsg := kafka.Message{
		Key:   []byte(msg.OrderID),
		Value: data,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka writer
func (k *KafkaMessageSender) Close() error {
	return k.writer.Close()
}

// Ensure KafkaMessageSender implements MessageSender
var _ messaging.MessageSender = (*KafkaMessageSender)(nil)
