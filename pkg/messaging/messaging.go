package messaging

import "context"

// MessageSender defines an interface for publishing match results.
// This keeps the core package decoupled from specific transports like
// the Kafka implementations in pkg/messaging/kafka and pkg/db/queue.
type MessageSender interface {
	SendMatchMessage(ctx context.Context, msg *MatchMessage) error
	Close() error
}

// MatchMessage is the wire representation of one match_order result.
type MatchMessage struct {
	OrderID      string  `json:"orderId"`
	Symbol       string  `json:"symbol"`
	ExecutedQty  string  `json:"executedQty"`
	RemainingQty string  `json:"remainingQty"`
	Stored       bool    `json:"stored"`
	Trades       []Trade `json:"trades"`
}

// Trade represents a single trade execution
type Trade struct {
	Symbol      string `json:"symbol"`
	BuyOrderID  string `json:"buyOrderId"`
	SellOrderID string `json:"sellOrderId"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
}

// OrderRequest is the intake schema for orders consumed from the order
// topic. Quantities and prices travel as decimal strings.
type OrderRequest struct {
	OrderID  string `json:"orderId"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}
