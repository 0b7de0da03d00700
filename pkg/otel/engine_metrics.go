package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	engineMetrics     *EngineMetrics
	engineMetricsOnce sync.Once
)

// EngineMetrics holds metrics for matching engine operations
type EngineMetrics struct {
	// Orders accepted by the engine, by side
	ordersTotal metric.Int64Counter
	// Trades produced by match steps
	tradesTotal metric.Int64Counter
	// Wall time of one match_order call
	matchLatency metric.Float64Histogram
}

// GetEngineMetrics returns the EngineMetrics singleton
func GetEngineMetrics() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(instrumentationName)
		m := &EngineMetrics{}

		ordersTotal, err := meter.Int64Counter(
			"engine.orders.total",
			metric.WithDescription("Total number of orders processed"),
			metric.WithUnit("{order}"),
		)
		if err == nil {
			m.ordersTotal = ordersTotal
		}

		tradesTotal, err := meter.Int64Counter(
			"engine.trades.total",
			metric.WithDescription("Total number of trades produced"),
			metric.WithUnit("{trade}"),
		)
		if err == nil {
			m.tradesTotal = tradesTotal
		}

		matchLatency, err := meter.Float64Histogram(
			"engine.match.duration",
			metric.WithDescription("Duration of one match call"),
			metric.WithUnit("ms"),
		)
		if err == nil {
			m.matchLatency = matchLatency
		}

		engineMetrics = m
	})

	return engineMetrics
}

// RecordOrderProcessed increments the processed orders counter
func (m *EngineMetrics) RecordOrderProcessed(ctx context.Context, side string) {
	if m.ordersTotal == nil {
		return
	}

	m.ordersTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("order.side", side),
	))
}

// RecordTrades increments the trades counter
func (m *EngineMetrics) RecordTrades(ctx context.Context, count int64) {
	if m.tradesTotal == nil || count == 0 {
		return
	}

	m.tradesTotal.Add(ctx, count)
}

// RecordMatchLatency records the duration of one match call
func (m *EngineMetrics) RecordMatchLatency(ctx context.Context, d time.Duration) {
	if m.matchLatency == nil {
		return
	}

	m.matchLatency.Record(ctx, float64(d.Microseconds())/1000.0)
}
