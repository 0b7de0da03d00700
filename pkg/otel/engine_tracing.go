package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Span names
	SpanMatchOrder    = "match_order"
	SpanPublishTrades = "publish_trades"

	// Attribute keys
	AttributeOrderID           = "order.id"
	AttributeOrderSymbol       = "order.symbol"
	AttributeOrderSide         = "order.side"
	AttributeOrderQuantity     = "order.quantity"
	AttributeOrderPrice        = "order.price"
	AttributeExecutedQuantity  = "order.executed_quantity"
	AttributeRemainingQuantity = "order.remaining_quantity"
	AttributeTradeCount        = "trade.count"
)

// StartMatchSpan starts a new span for order matching. When no tracer
// provider is configured the global no-op tracer is used, so the
// returned span is always safe to End.
func StartMatchSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// AddAttributes adds attributes to a span
func AddAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
}
