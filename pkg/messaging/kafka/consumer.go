package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/tradevine/matchcore/pkg/messaging"
)

// OrderHandler processes one decoded order request.
type OrderHandler func(ctx context.Context, req *messaging.OrderRequest) error

// OrderConsumer reads order requests from the order topic and hands them
// to the matching layer one at a time.
type OrderConsumer struct {
	reader *kafka.Reader
	logger zerolog.Logger
}

// NewOrderConsumer creates a consumer for the given brokers and topic.
func NewOrderConsumer(brokers []string, topic, groupID string, logger zerolog.Logger) *OrderConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &OrderConsumer{
		reader: reader,
		logger: logger,
	}
}

// Run consumes until the context is canceled. Malformed payloads and
// handler rejections are logged and skipped; the stream keeps moving.
func (c *OrderConsumer) Run(ctx context.Context, handler OrderHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var req messaging.OrderRequest
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			c.logger.Warn().
				Err(err).
				Int64("offset", msg.Offset).
				Msg("skipping malformed order request")
			continue
		}

		if err := handler(ctx, &req); err != nil {
			c.logger.Warn().
				Err(err).
				Str("order_id", req.OrderID).
				Msg("order rejected")
		}
	}
}

// Close closes the underlying reader
func (c *OrderConsumer) Close() error {
	return c.reader.Close()
}
