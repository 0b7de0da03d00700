package core

import (
	"context"
	"sync"
	"time"

	"github.com/nikolaydubina/fpdecimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tradevine/matchcore/pkg/logging"
	"github.com/tradevine/matchcore/pkg/messaging"
	"github.com/tradevine/matchcore/pkg/otel"
)

// MatchingEngine realizes price-time-priority continuous matching of one
// incoming order at a time against a single OrderBook. A call to
// MatchOrder is atomic with respect to other callers: the mutex spans the
// whole match-then-insert sequence, never individual fields.
type MatchingEngine struct {
	mu     sync.Mutex
	book   *OrderBook
	sender messaging.MessageSender
}

// NewMatchingEngine creates an engine over the given book. The sender
// receives each call's match result; pass nil to disable publication.
func NewMatchingEngine(book *OrderBook, sender messaging.MessageSender) *MatchingEngine {
	return &MatchingEngine{
		book:   book,
		sender: sender,
	}
}

// Book returns the order book this engine mutates
func (e *MatchingEngine) Book() *OrderBook {
	return e.book
}

// MatchOrder matches the incoming order against the opposite side of the
// book while the crossing condition holds, emitting one Trade per match
// step. Any unfilled remainder rests in the book. Trades are returned in
// the order they were generated, best resting priority first.
//
// Precondition violations (non-positive quantity or price, duplicate ID,
// symbol mismatch) are reported before any mutation. A non-crossing order
// is not an error; it simply rests.
func (e *MatchingEngine) MatchOrder(ctx context.Context, incoming *Order) ([]Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()

	ctx, span := otel.StartMatchSpan(ctx, otel.SpanMatchOrder,
		attribute.String(otel.AttributeOrderID, incoming.ID()),
		attribute.String(otel.AttributeOrderSymbol, incoming.Symbol()),
		attribute.String(otel.AttributeOrderSide, incoming.Side().String()),
		attribute.String(otel.AttributeOrderQuantity, incoming.Quantity().String()),
		attribute.String(otel.AttributeOrderPrice, incoming.Price().String()),
	)
	defer span.End()

	if err := e.validate(incoming); err != nil {
		span.SetStatus(codes.Error, "order rejected")
		return nil, err
	}

	incoming.setTimestamp(e.book.nextTimestamp())

	originalQty := incoming.Quantity()
	opposite := incoming.Side().Opposite()
	trades := make([]Trade, 0)

	for incoming.Quantity().GreaterThan(fpdecimal.Zero) {
		best := e.book.PeekBest(opposite)
		if best == nil {
			break
		}

		if !crosses(incoming.Side(), incoming.Price(), best.Price()) {
			break
		}

		fill := min(best.Quantity(), incoming.Quantity())
		trades = append(trades, newTrade(incoming, best, fill))

		if err := e.book.DecrementOrRemove(best, fill); err != nil {
			span.SetStatus(codes.Error, "book invariant violated")
			return trades, err
		}

		incoming.DecreaseQuantity(fill)
	}

	stored := false
	if incoming.Quantity().GreaterThan(fpdecimal.Zero) {
		if err := e.book.Insert(incoming); err != nil {
			span.SetStatus(codes.Error, "failed to insert remainder")
			return trades, err
		}
		stored = true
	}

	processed := originalQty.Sub(incoming.Quantity())

	e.publish(ctx, incoming, trades, processed, stored)

	metrics := otel.GetEngineMetrics()
	metrics.RecordOrderProcessed(ctx, incoming.Side().String())
	metrics.RecordTrades(ctx, int64(len(trades)))
	metrics.RecordMatchLatency(ctx, time.Since(start))

	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("order_id", incoming.ID()).
		Str("side", incoming.Side().String()).
		Str("processed", processed.String()).
		Str("remaining", incoming.Quantity().String()).
		Int("trades", len(trades)).
		Bool("stored", stored).
		Msg("order matched")

	otel.AddAttributes(span,
		attribute.String(otel.AttributeExecutedQuantity, processed.String()),
		attribute.String(otel.AttributeRemainingQuantity, incoming.Quantity().String()),
		attribute.Int(otel.AttributeTradeCount, len(trades)),
	)
	span.SetStatus(codes.Ok, "order matched")

	return trades, nil
}

// validate enforces the intake contract before any mutation begins.
func (e *MatchingEngine) validate(incoming *Order) error {
	if incoming.Quantity().LessThanOrEqual(fpdecimal.Zero) {
		return ErrInvalidQuantity
	}

	if incoming.Price().LessThanOrEqual(fpdecimal.Zero) {
		return ErrInvalidPrice
	}

	if incoming.Symbol() != e.book.Symbol() {
		return ErrSymbolMismatch
	}

	if existing := e.book.GetOrder(incoming.ID()); existing != nil {
		return ErrOrderExists
	}

	return nil
}

// publish sends the match result downstream. Matching is already
// committed at this point, so a send failure is logged, not returned.
func (e *MatchingEngine) publish(ctx context.Context, incoming *Order, trades []Trade, processed fpdecimal.Decimal, stored bool) {
	if e.sender == nil {
		return
	}

	ctx, span := otel.StartMatchSpan(ctx, otel.SpanPublishTrades,
		attribute.String(otel.AttributeOrderID, incoming.ID()),
		attribute.Int(otel.AttributeTradeCount, len(trades)),
	)
	defer span.End()

	msg := &messaging.MatchMessage{
		OrderID:      incoming.ID(),
		Symbol:       incoming.Symbol(),
		ExecutedQty:  processed.String(),
		RemainingQty: incoming.Quantity().String(),
		Stored:       stored,
		Trades:       convertTrades(trades),
	}

	if err := e.sender.SendMatchMessage(ctx, msg); err != nil {
		span.SetStatus(codes.Error, "failed to publish match result")
		logger := logging.FromContext(ctx)
		logger.Error().
			Err(err).
			Str("order_id", incoming.ID()).
			Msg("failed to publish match result")
		return
	}

	span.SetStatus(codes.Ok, "match result published")
}

// crosses reports whether an incoming order at takerPrice can trade
// against a resting order at restingPrice. Equality matches; time
// priority only orders resting orders among themselves.
func crosses(side Side, takerPrice, restingPrice fpdecimal.Decimal) bool {
	if side == Buy {
		return takerPrice.GreaterThanOrEqual(restingPrice)
	}
	return takerPrice.LessThanOrEqual(restingPrice)
}

// min returns the minimum of two decimals
func min(a, b fpdecimal.Decimal) fpdecimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// convertTrades maps core trades to the messaging wire format.
func convertTrades(trades []Trade) []messaging.Trade {
	converted := make([]messaging.Trade, len(trades))
	for i, trade := range trades {
		converted[i] = messaging.Trade{
			Symbol:      trade.Symbol,
			BuyOrderID:  trade.BuyOrderID,
			SellOrderID: trade.SellOrderID,
			Price:       trade.Price.String(),
			Quantity:    trade.Quantity.String(),
		}
	}
	return converted
}
