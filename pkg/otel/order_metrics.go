package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OrderMetrics holds the counters recorded around book operations
type OrderMetrics struct {
	ordersSubmitted metric.Int64Counter
	ordersRejected  metric.Int64Counter
	tradesExecuted  metric.Int64Counter
}

var (
	orderMetrics     *OrderMetrics
	orderMetricsOnce sync.Once
)

// GetOrderMetrics returns the OrderMetrics singleton
func GetOrderMetrics() *OrderMetrics {
	orderMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(instrumentationName)
		orderMetrics = &OrderMetrics{}

		var err error
		orderMetrics.ordersSubmitted, err = meter.Int64Counter(
			"book.orders_submitted.total",
			metric.WithDescription("Total number of orders submitted"),
			metric.WithUnit("{order}"),
		)
		if err != nil {
			orderMetrics.ordersSubmitted = nil
		}

		orderMetrics.ordersRejected, err = meter.Int64Counter(
			"book.orders_rejected.total",
			metric.WithDescription("Total number of order submissions rejected"),
			metric.WithUnit("{order}"),
		)
		if err != nil {
			orderMetrics.ordersRejected = nil
		}

		orderMetrics.tradesExecuted, err = meter.Int64Counter(
			"book.trades_executed.total",
			metric.WithDescription("Total number of trades executed"),
			metric.WithUnit("{trade}"),
		)
		if err != nil {
			orderMetrics.tradesExecuted = nil
		}
	})

	return orderMetrics
}

// RecordSubmission counts one order submission by type
func (m *OrderMetrics) RecordSubmission(ctx context.Context, orderType string) {
	if m.ordersSubmitted == nil {
		return
	}
	m.ordersSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("order.type", orderType)))
}

// RecordRejection counts one rejected submission by type
func (m *OrderMetrics) RecordRejection(ctx context.Context, orderType string) {
	if m.ordersRejected == nil {
		return
	}
	m.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("order.type", orderType)))
}

// RecordTrades counts executed trades
func (m *OrderMetrics) RecordTrades(ctx context.Context, count int64) {
	if m.tradesExecuted == nil || count == 0 {
		return
	}
	m.tradesExecuted.Add(ctx, count)
}
