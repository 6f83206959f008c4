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

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType represents the admission and matching policy of an order
type OrderType string

// Order types
const (
	GoodTillCancel OrderType = "GTC"    // rests until matched or cancelled
	GoodForDay     OrderType = "GFD"    // rests, pruned at the daily cutoff
	FillAndKill    OrderType = "FAK"    // never rests after matching
	FillOrKill     OrderType = "FOK"    // all-or-nothing admission
	Market         OrderType = "MARKET" // repriced to opposing worst on entry
)

func validOrderType(t OrderType) bool {
	switch t {
	case GoodTillCancel, GoodForDay, FillAndKill, FillOrKill, Market:
		return true
	}
	return false
}

// Order stores the identity and fill progress of a single order. The
// book owns all Order records it admits; callers hold read-only handles.
type Order struct {
	id        string
	orderType OrderType
	side      Side
	price     fpdecimal.Decimal
	initial   fpdecimal.Decimal
	remaining fpdecimal.Decimal
}

// NewLimitOrder creates a priced order of the given type
func NewLimitOrder(orderID string, side Side, quantity, price fpdecimal.Decimal, orderType OrderType) (*Order, error) {
	if quantity.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	if price.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidPrice
	}

	if !validOrderType(orderType) || orderType == Market {
		return nil, ErrInvalidOrderType
	}

	return &Order{
		id:        orderID,
		orderType: orderType,
		side:      side,
		price:     price,
		initial:   quantity,
		remaining: quantity,
	}, nil
}

// NewMarketOrder creates an unpriced order. The book assigns the
// opposing side's worst resting price on admission.
func NewMarketOrder(orderID string, side Side, quantity fpdecimal.Decimal) (*Order, error) {
	if quantity.LessThanOrEqual(fpdecimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	return &Order{
		id:        orderID,
		orderType: Market,
		side:      side,
		price:     fpdecimal.Zero,
		initial:   quantity,
		remaining: quantity,
	}, nil
}

// ID returns the caller-assigned order identifier
func (o *Order) ID() string {
	return o.id
}

// Side returns side of the Order
func (o *Order) Side() Side {
	return o.side
}

// OrderType returns the order's admission policy
func (o *Order) OrderType() OrderType {
	return o.orderType
}

// Price returns Price field copy
func (o *Order) Price() fpdecimal.Decimal {
	return o.price
}

// InitialQuantity returns the quantity the order was created with
func (o *Order) InitialQuantity() fpdecimal.Decimal {
	return o.initial
}

// RemainingQuantity returns the quantity not yet filled
func (o *Order) RemainingQuantity() fpdecimal.Decimal {
	return o.remaining
}

// FilledQuantity returns the quantity executed so far
func (o *Order) FilledQuantity() fpdecimal.Decimal {
	return o.initial.Sub(o.remaining)
}

// IsFilled reports whether no quantity remains
func (o *Order) IsFilled() bool {
	return o.remaining.Equal(fpdecimal.Zero)
}

// Fill reduces the remaining quantity. Filling past the remaining
// quantity means the matching loop is broken, so it panics rather
// than clamping.
func (o *Order) Fill(quantity fpdecimal.Decimal) {
	if quantity.GreaterThan(o.remaining) {
		panic("core: order " + o.id + " cannot be filled for more than its remaining quantity")
	}
	o.remaining = o.remaining.Sub(quantity)
}

// reprice replaces the order's price. Used when a FillAndKill order is
// adjusted to the opposing side's worst price.
func (o *Order) reprice(price fpdecimal.Decimal) {
	o.price = price
}

// toGoodTillCancel reprices a Market order at the opposing side's worst
// price and converts it so it matches as a plain limit order.
func (o *Order) toGoodTillCancel(price fpdecimal.Decimal) {
	o.price = price
	o.orderType = GoodTillCancel
}

// MarshalJSON implements json.Marshaler
func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"id"`
		OrderType OrderType `json:"orderType"`
		Side      string    `json:"side"`
		Price     string    `json:"price"`
		Initial   string    `json:"initialQty"`
		Remaining string    `json:"remainingQty"`
	}{
		ID:        o.id,
		OrderType: o.orderType,
		Side:      o.side.String(),
		Price:     o.price.String(),
		Initial:   o.initial.String(),
		Remaining: o.remaining.String(),
	})
}

// String implements fmt.Stringer interface
func (o *Order) String() string {
	j, _ := o.MarshalJSON()
	return string(j)
}
