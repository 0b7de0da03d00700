package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradevine/matchcore/pkg/backend/memory"
	"github.com/tradevine/matchcore/pkg/core"
	"github.com/tradevine/matchcore/pkg/messaging"
)

const testSymbol = "BTC-USDT"

func newTestEngine(t *testing.T) (*core.MatchingEngine, *messaging.MockMessageSender) {
	t.Helper()
	sender := messaging.NewMockMessageSender()
	book := core.NewOrderBook(testSymbol, memory.NewMemoryBackend())
	return core.NewMatchingEngine(book, sender), sender
}

func limitOrder(t *testing.T, id string, side core.Side, quantity, price string) *core.Order {
	t.Helper()
	q, err := fpdecimal.FromString(quantity)
	require.NoError(t, err)
	p, err := fpdecimal.FromString(price)
	require.NoError(t, err)
	order, err := core.NewLimitOrder(id, testSymbol, side, q, p)
	require.NoError(t, err)
	return order
}

func submit(t *testing.T, engine *core.MatchingEngine, order *core.Order) []core.Trade {
	t.Helper()
	trades, err := engine.MatchOrder(context.Background(), order)
	require.NoError(t, err)
	return trades
}

// TestMatchScenario walks a four-order sequence through an empty book and
// checks every trade and every resting remainder along the way.
func TestMatchScenario(t *testing.T) {
	engine, _ := newTestEngine(t)
	book := engine.Book()

	// Sell 10 @ 100 rests: nothing to match.
	trades := submit(t, engine, limitOrder(t, "1", core.Sell, "10", "100"))
	assert.Empty(t, trades)
	assert.Equal(t, 1, book.Depth(core.Sell))

	// Buy 4 @ 101 crosses and trades at the resting price.
	trades = submit(t, engine, limitOrder(t, "2", core.Buy, "4", "101"))
	require.Len(t, trades, 1)
	assert.Equal(t, "2", trades[0].BuyOrderID)
	assert.Equal(t, "1", trades[0].SellOrderID)
	assert.True(t, trades[0].Quantity.Equal(fpdecimal.FromFloat(4.0)))
	assert.True(t, trades[0].Price.Equal(fpdecimal.FromFloat(100.0)))

	// Seller's remainder of 6 still rests.
	resting := book.GetOrder("1")
	require.NotNil(t, resting)
	assert.True(t, resting.Quantity().Equal(fpdecimal.FromFloat(6.0)))
	assert.Equal(t, 0, book.Depth(core.Buy))

	// Buy 10 @ 99 does not cross the 100 ask; it rests.
	trades = submit(t, engine, limitOrder(t, "3", core.Buy, "10", "99"))
	assert.Empty(t, trades)
	assert.Equal(t, 1, book.Depth(core.Buy))

	// Sell 3 @ 99 crosses the resting bid and trades at its price.
	trades = submit(t, engine, limitOrder(t, "4", core.Sell, "3", "99"))
	require.Len(t, trades, 1)
	assert.Equal(t, "3", trades[0].BuyOrderID)
	assert.Equal(t, "4", trades[0].SellOrderID)
	assert.True(t, trades[0].Quantity.Equal(fpdecimal.FromFloat(3.0)))
	assert.True(t, trades[0].Price.Equal(fpdecimal.FromFloat(99.0)))

	bid := book.GetOrder("3")
	require.NotNil(t, bid)
	assert.True(t, bid.Quantity().Equal(fpdecimal.FromFloat(7.0)))
}

func TestMatchPriceTimePriority(t *testing.T) {
	engine, _ := newTestEngine(t)

	// Two asks at the same price: the earlier one must fill first.
	submit(t, engine, limitOrder(t, "a1", core.Sell, "5", "100"))
	submit(t, engine, limitOrder(t, "a2", core.Sell, "5", "100"))
	// A better-priced ask arriving later still outranks both.
	submit(t, engine, limitOrder(t, "a3", core.Sell, "5", "99"))

	trades := submit(t, engine, limitOrder(t, "b1", core.Buy, "12", "100"))
	require.Len(t, trades, 3)
	assert.Equal(t, "a3", trades[0].SellOrderID)
	assert.Equal(t, "a1", trades[1].SellOrderID)
	assert.Equal(t, "a2", trades[2].SellOrderID)

	// a1 and a3 are gone; a2 keeps the 3 the taker could not absorb.
	assert.Nil(t, engine.Book().GetOrder("a1"))
	assert.Nil(t, engine.Book().GetOrder("a3"))
	a2 := engine.Book().GetOrder("a2")
	require.NotNil(t, a2)
	assert.True(t, a2.Quantity().Equal(fpdecimal.FromFloat(3.0)))
}

func TestMatchTradesAtRestingPrice(t *testing.T) {
	engine, _ := newTestEngine(t)

	submit(t, engine, limitOrder(t, "b1", core.Buy, "5", "102"))
	trades := submit(t, engine, limitOrder(t, "s1", core.Sell, "5", "98"))

	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(fpdecimal.FromFloat(102.0)),
		"trade must execute at the resting order's price")
}

func TestMatchEqualPricesCross(t *testing.T) {
	engine, _ := newTestEngine(t)

	submit(t, engine, limitOrder(t, "s1", core.Sell, "5", "100"))
	trades := submit(t, engine, limitOrder(t, "b1", core.Buy, "5", "100"))

	require.Len(t, trades, 1)
	assert.Equal(t, 0, engine.Book().Depth(core.Buy))
	assert.Equal(t, 0, engine.Book().Depth(core.Sell))
}

func TestMatchNonCrossingRests(t *testing.T) {
	engine, _ := newTestEngine(t)

	submit(t, engine, limitOrder(t, "s1", core.Sell, "5", "101"))
	trades := submit(t, engine, limitOrder(t, "b1", core.Buy, "5", "100"))

	assert.Empty(t, trades)
	assert.Equal(t, 1, engine.Book().Depth(core.Buy))
	assert.Equal(t, 1, engine.Book().Depth(core.Sell))
}

func TestMatchExactExhaustion(t *testing.T) {
	engine, _ := newTestEngine(t)

	submit(t, engine, limitOrder(t, "s1", core.Sell, "5", "100"))
	trades := submit(t, engine, limitOrder(t, "b1", core.Buy, "5", "100"))

	require.Len(t, trades, 1)
	// Both sides fully consumed: nothing rests, nothing lingers.
	assert.Nil(t, engine.Book().GetOrder("s1"))
	assert.Nil(t, engine.Book().GetOrder("b1"))
}

func TestMatchRejectsDuplicateID(t *testing.T) {
	engine, _ := newTestEngine(t)

	submit(t, engine, limitOrder(t, "o1", core.Buy, "5", "100"))

	_, err := engine.MatchOrder(context.Background(), limitOrder(t, "o1", core.Buy, "5", "100"))
	assert.ErrorIs(t, err, core.ErrOrderExists)
	assert.Equal(t, 1, engine.Book().Depth(core.Buy))
}

func TestMatchRejectsSymbolMismatch(t *testing.T) {
	engine, _ := newTestEngine(t)

	order, err := core.NewLimitOrder("o1", "ETH-USDT", core.Buy,
		fpdecimal.FromFloat(5.0), fpdecimal.FromFloat(100.0))
	require.NoError(t, err)

	_, err = engine.MatchOrder(context.Background(), order)
	assert.ErrorIs(t, err, core.ErrSymbolMismatch)
}

func TestMatchRejectsEmptyOrder(t *testing.T) {
	engine, _ := newTestEngine(t)

	order := limitOrder(t, "o1", core.Buy, "5", "100")
	order.DecreaseQuantity(fpdecimal.FromFloat(5.0))

	_, err := engine.MatchOrder(context.Background(), order)
	assert.ErrorIs(t, err, core.ErrInvalidQuantity)
	assert.Equal(t, 0, engine.Book().Depth(core.Buy))
}

func TestMatchQuantityConservation(t *testing.T) {
	engine, _ := newTestEngine(t)

	submit(t, engine, limitOrder(t, "s1", core.Sell, "3", "100"))
	submit(t, engine, limitOrder(t, "s2", core.Sell, "4", "100.5"))
	submit(t, engine, limitOrder(t, "s3", core.Sell, "5", "101"))

	incomingQty := fpdecimal.FromFloat(10.0)
	trades := submit(t, engine, limitOrder(t, "b1", core.Buy, "10", "101"))

	filled := fpdecimal.Zero
	for _, trade := range trades {
		filled = filled.Add(trade.Quantity)
	}

	remaining := fpdecimal.Zero
	if bid := engine.Book().GetOrder("b1"); bid != nil {
		remaining = bid.Quantity()
	}

	assert.True(t, filled.Add(remaining).Equal(incomingQty),
		"fills plus remainder must equal the original quantity")
}

func TestMatchPublishesResult(t *testing.T) {
	engine, sender := newTestEngine(t)

	submit(t, engine, limitOrder(t, "s1", core.Sell, "4", "100"))
	submit(t, engine, limitOrder(t, "b1", core.Buy, "10", "100"))

	messages := sender.Messages()
	require.Len(t, messages, 2)

	// First message: the resting sell executed nothing.
	assert.Equal(t, "s1", messages[0].OrderID)
	assert.True(t, messages[0].Stored)
	assert.Empty(t, messages[0].Trades)

	// Second message: the buy executed 4, rests with 6.
	msg := messages[1]
	assert.Equal(t, "b1", msg.OrderID)
	assert.Equal(t, testSymbol, msg.Symbol)
	assert.Equal(t, "4", msg.ExecutedQty)
	assert.Equal(t, "6", msg.RemainingQty)
	assert.True(t, msg.Stored)
	require.Len(t, msg.Trades, 1)
	assert.Equal(t, "b1", msg.Trades[0].BuyOrderID)
	assert.Equal(t, "s1", msg.Trades[0].SellOrderID)
	assert.Equal(t, "100", msg.Trades[0].Price)
}

func TestMatchFullyFilledTakerNotStored(t *testing.T) {
	engine, sender := newTestEngine(t)

	submit(t, engine, limitOrder(t, "s1", core.Sell, "10", "100"))
	submit(t, engine, limitOrder(t, "b1", core.Buy, "4", "100"))

	messages := sender.Messages()
	require.Len(t, messages, 2)
	assert.False(t, messages[1].Stored)
	assert.Equal(t, "0", messages[1].RemainingQty)
	assert.Nil(t, engine.Book().GetOrder("b1"))
}

// failingSender rejects every publication attempt.
type failingSender struct{}

func (failingSender) SendMatchMessage(context.Context, *messaging.MatchMessage) error {
	return errors.New("broker unavailable")
}

func (failingSender) Close() error { return nil }

func TestMatchPublishFailureDoesNotFailMatch(t *testing.T) {
	book := core.NewOrderBook(testSymbol, memory.NewMemoryBackend())
	engine := core.NewMatchingEngine(book, failingSender{})

	submit(t, engine, limitOrder(t, "s1", core.Sell, "5", "100"))
	trades := submit(t, engine, limitOrder(t, "b1", core.Buy, "5", "100"))

	// Matching is committed before publication; a send failure is logged
	// and the call still succeeds.
	require.Len(t, trades, 1)
	assert.Equal(t, 0, book.Depth(core.Sell))
}

func TestMatchManyLevels(t *testing.T) {
	engine, _ := newTestEngine(t)

	for i := 0; i < 10; i++ {
		submit(t, engine, limitOrder(t, fmt.Sprintf("s%d", i), core.Sell, "1",
			fmt.Sprintf("%d", 100+i)))
	}

	trades := submit(t, engine, limitOrder(t, "b1", core.Buy, "10", "109"))
	require.Len(t, trades, 10)

	// Sweep consumes levels from best ask upward.
	for i, trade := range trades {
		assert.True(t, trade.Price.Equal(fpdecimal.FromFloat(float64(100+i))))
	}
	assert.Equal(t, 0, engine.Book().Depth(core.Sell))
}
