package core

import (
	"encoding/json"

	"github.com/nikolaydubina/fpdecimal"
)

// TradeLeg records one side of an execution. Price is the resting
// order's own price, so the two legs of a Trade may differ.
type TradeLeg struct {
	OrderID  string
	Price    fpdecimal.Decimal
	Quantity fpdecimal.Decimal
}

// MarshalJSON implements json.Marshaler
func (l TradeLeg) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OrderID  string `json:"orderID"`
		Price    string `json:"price"`
		Quantity string `json:"quantity"`
	}{
		OrderID:  l.OrderID,
		Price:    l.Price.String(),
		Quantity: l.Quantity.String(),
	})
}

// Trade is one matched quantity unit between a resting bid and a
// resting ask. Immutable once produced.
type Trade struct {
	Bid TradeLeg `json:"bid"`
	Ask TradeLeg `json:"ask"`
}

// Trades is the execution report returned by Add and Modify
type Trades []Trade

// Level is one populated price level in a book snapshot: the price and
// the summed remaining quantity of every order resting at it.
type Level struct {
	Price    fpdecimal.Decimal
	Quantity fpdecimal.Decimal
}

// MarshalJSON implements json.Marshaler
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price    string `json:"price"`
		Quantity string `json:"quantity"`
	}{
		Price:    l.Price.String(),
		Quantity: l.Quantity.String(),
	})
}
