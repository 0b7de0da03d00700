package core

import (
	"fmt"
	"strings"

	"github.com/nikolaydubina/fpdecimal"
)

// OrderBook maintains resting liquidity for a single instrument in strict
// price-time priority. It is created empty and mutated only through the
// matching engine; callers own exactly one book per instrument.
type OrderBook struct {
	backend BookBackend
	symbol  string
	seq     uint64
}

// NewOrderBook creates an order book bound to one instrument, backed by
// the given storage. The arrival sequence resumes past any orders the
// backend already holds, so a book reopened over persisted state keeps
// time priority intact.
func NewOrderBook(symbol string, backend BookBackend) *OrderBook {
	ob := &OrderBook{
		backend: backend,
		symbol:  symbol,
	}

	for _, side := range []Side{Buy, Sell} {
		for _, order := range backend.OrdersBySide(side) {
			if order.Timestamp() > ob.seq {
				ob.seq = order.Timestamp()
			}
		}
	}

	return ob
}

// Symbol returns the instrument this book trades
func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

// GetOrder returns a resting order by ID, or nil
func (ob *OrderBook) GetOrder(orderID string) *Order {
	return ob.backend.GetOrder(orderID)
}

// Insert adds an order to its side of the book. Precondition: the order
// has positive remaining quantity.
func (ob *OrderBook) Insert(order *Order) error {
	if order.Quantity().LessThanOrEqual(fpdecimal.Zero) {
		return ErrInvalidQuantity
	}

	return ob.backend.Insert(order)
}

// PeekBest returns the best resting order on the given side, or nil
func (ob *OrderBook) PeekBest(side Side) *Order {
	return ob.backend.PeekBest(side)
}

// DecrementOrRemove reduces a resting order's quantity by the filled
// amount, removing it from the book once exhausted. A fill larger than
// the remaining quantity is an invariant violation, not a partial apply.
func (ob *OrderBook) DecrementOrRemove(order *Order, quantity fpdecimal.Decimal) error {
	if quantity.LessThanOrEqual(fpdecimal.Zero) || quantity.GreaterThan(order.Quantity()) {
		return ErrInsufficientQuantity
	}

	return ob.backend.DecrementOrRemove(order, quantity)
}

// Depth returns the number of resting orders on one side
func (ob *OrderBook) Depth(side Side) int {
	return ob.backend.Depth(side)
}

// Orders returns one side's resting orders in priority order
func (ob *OrderBook) Orders(side Side) []*Order {
	return ob.backend.OrdersBySide(side)
}

// nextTimestamp advances the book's monotonic arrival sequence. Wall
// clocks can collide; the sequence cannot.
func (ob *OrderBook) nextTimestamp() uint64 {
	ob.seq++
	return ob.seq
}

// String implements fmt.Stringer interface
func (ob *OrderBook) String() string {
	builder := strings.Builder{}

	builder.WriteString("Ask:")
	for _, order := range ob.backend.OrdersBySide(Sell) {
		builder.WriteString(fmt.Sprintf("\n%s -> %s", order.Price().String(), order.Quantity().String()))
	}
	builder.WriteString("\n")

	builder.WriteString("Bid:")
	for _, order := range ob.backend.OrdersBySide(Buy) {
		builder.WriteString(fmt.Sprintf("\n%s -> %s", order.Price().String(), order.Quantity().String()))
	}
	builder.WriteString("\n")

	return builder.String()
}
