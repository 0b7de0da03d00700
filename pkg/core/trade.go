package core

import (
	"encoding/json"

	"github.com/nikolaydubina/fpdecimal"
)

// Trade is an immutable record of one match step. The price is always the
// resting order's price, never the aggressor's.
type Trade struct {
	Symbol      string
	BuyOrderID  string
	SellOrderID string
	Quantity    fpdecimal.Decimal
	Price       fpdecimal.Decimal
}

// newTrade builds the trade produced by matching an incoming order
// against a resting one.
func newTrade(incoming, resting *Order, quantity fpdecimal.Decimal) Trade {
	trade := Trade{
		Symbol:   incoming.Symbol(),
		Quantity: quantity,
		Price:    resting.Price(),
	}

	if incoming.Side() == Buy {
		trade.BuyOrderID = incoming.ID()
		trade.SellOrderID = resting.ID()
	} else {
		trade.BuyOrderID = resting.ID()
		trade.SellOrderID = incoming.ID()
	}

	return trade
}

// MarshalJSON implements Marshaler interface
func (t Trade) MarshalJSON() ([]byte, error) {
	customStruct := struct {
		Symbol      string `json:"symbol"`
		BuyOrderID  string `json:"buyOrderId"`
		SellOrderID string `json:"sellOrderId"`
		Quantity    string `json:"quantity"`
		Price       string `json:"price"`
	}{
		Symbol:      t.Symbol,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Quantity:    t.Quantity.String(),
		Price:       t.Price.String(),
	}
	return json.Marshal(customStruct)
}

// String implements Stringer interface
func (t Trade) String() string {
	j, _ := t.MarshalJSON()
	return string(j)
}
