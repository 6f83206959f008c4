package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Span names
	SpanSubmitOrder = "submit_order"
	SpanCancelOrder = "cancel_order"
	SpanModifyOrder = "modify_order"
	SpanPublishFeed = "publish_trade_feed"

	// Attribute keys
	AttributeOrderID       = "order.id"
	AttributeOrderSide     = "order.side"
	AttributeOrderType     = "order.type"
	AttributeOrderQuantity = "order.quantity"
	AttributeOrderPrice    = "order.price"
	AttributeTradeCount    = "trade.count"
	AttributeBookSize      = "book.size"
)

// StartOrderSpan starts a new span for an order operation
func StartOrderSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// AddAttributes adds attributes to a span
func AddAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
}
