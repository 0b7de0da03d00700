package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"

	"github.com/tradevine/matchcore/pkg/messaging"
)

var (
	brokerList = "localhost:9092"
	topic      = "match-results"
)

const maxRetry = 5

// SetBrokerList overrides the Kafka broker list (comma separated)
func SetBrokerList(brokers string) {
	brokerList = brokers
}

// SetTopic overrides the topic match results are published to
func SetTopic(t string) {
	topic = t
}

// QueueMessageSender implements the MessageSender interface on a sarama
// sync producer.
type QueueMessageSender struct {
	producer sarama.SyncProducer
}

// NewQueueMessageSender creates a sender with its own producer connection
func NewQueueMessageSender() (*QueueMessageSender, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = maxRetry

	producer, err := sarama.NewSyncProducer(strings.Split(brokerList, ","), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &QueueMessageSender{producer: producer}, nil
}

// newQueueMessageSenderWithProducer wires an existing producer, used by tests
func newQueueMessageSenderWithProducer(producer sarama.SyncProducer) *QueueMessageSender {
	return &QueueMessageSender{producer: producer}
}

// SendMatchMessage publishes the match result to the Kafka queue
func (q *QueueMessageSender) SendMatchMessage(_ context.Context, msg *messaging.MatchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal match message: %w", err)
	}

	producerMsg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(msg.OrderID),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := q.producer.SendMessage(producerMsg); err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	return nil
}

// Close closes the underlying producer
func (q *QueueMessageSender) Close() error {
	return q.producer.Close()
}

// Ensure QueueMessageSender implements MessageSender
var _ messaging.MessageSender = (*QueueMessageSender)(nil)
