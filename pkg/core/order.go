package core

import (
	"encoding/json"

	"github.com/nikolaydubina/fpdecimal"
)

// Side represents buy or sell side of the order
type Side int

// Order sides
const (
	Sell Side = iota
	Buy
)

// String returns side as string
func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side an incoming order on s matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// SideFromString parses a side name. Accepts "BUY" and "SELL".
func SideFromString(s string) (Side, error) {
	switch s {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return 0, ErrInvalidSide
	}
}

// Order stores identity and terms of a single resting or incoming
// instruction. Quantity is the remaining unfilled amount and decreases
// monotonically as matches occur; price and timestamp are immutable for
// the order's lifetime.
type Order struct {
	id        string
	symbol    string
	side      Side
	quantity  fpdecimal.Decimal
	price     fpdecimal.Decimal
	timestamp uint64
}

// NewLimitOrder creates a validated limit order. The timestamp is zero
// until the order book admits the order.
func NewLimitOrder(orderID, symbol string, side Side, quantity, price fpdecimal.Decimal) (*Order, error) {
	if quantity.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	if price.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidPrice
	}

	return &Order{
		id:       orderID,
		symbol:   symbol,
		side:     side,
		quantity: quantity,
		price:    price,
	}, nil
}

// ID returns the caller-assigned order identifier
func (o *Order) ID() string {
	return o.id
}

// Symbol returns the instrument identifier
func (o *Order) Symbol() string {
	return o.symbol
}

// Side returns side of the Order
func (o *Order) Side() Side {
	return o.side
}

// Quantity returns the remaining unfilled quantity
func (o *Order) Quantity() fpdecimal.Decimal {
	return o.quantity
}

// Price returns the limit price
func (o *Order) Price() fpdecimal.Decimal {
	return o.price
}

// Timestamp returns the arrival sequence number assigned by the book
func (o *Order) Timestamp() uint64 {
	return o.timestamp
}

// DecreaseQuantity reduces the remaining quantity by the filled amount
func (o *Order) DecreaseQuantity(quantity fpdecimal.Decimal) {
	o.quantity = o.quantity.Sub(quantity)
}

// setTimestamp stamps the arrival sequence number. Assigned exactly once,
// when the order is admitted for matching.
func (o *Order) setTimestamp(seq uint64) {
	o.timestamp = seq
}

// orderJSON is the wire shape used by backends that serialize orders.
type orderJSON struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	Side      Side   `json:"side"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
	Timestamp uint64 `json:"timestamp"`
}

// MarshalJSON implements custom JSON marshaling for Order
func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderJSON{
		ID:        o.id,
		Symbol:    o.symbol,
		Side:      o.side,
		Quantity:  o.quantity.String(),
		Price:     o.price.String(),
		Timestamp: o.timestamp,
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Order
func (o *Order) UnmarshalJSON(data []byte) error {
	var oj orderJSON
	if err := json.Unmarshal(data, &oj); err != nil {
		return err
	}

	quantity, err := fpdecimal.FromString(oj.Quantity)
	if err != nil {
		return err
	}

	price, err := fpdecimal.FromString(oj.Price)
	if err != nil {
		return err
	}

	o.id = oj.ID
	o.symbol = oj.Symbol
	o.side = oj.Side
	o.quantity = quantity
	o.price = price
	o.timestamp = oj.Timestamp

	return nil
}

// String implements Stringer interface
func (o *Order) String() string {
	j, _ := o.MarshalJSON()
	return string(j)
}
