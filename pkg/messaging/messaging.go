package messaging

import "github.com/openvenue/matchd/pkg/core"

// TradeSender defines an interface for publishing executed trades.
// This keeps the server package decoupled from specific implementations
// like Kafka.
type TradeSender interface {
	SendTrades(trades []TradeMessage) error
	Close() error
}

// TradeMessage is the wire representation of one execution. Decimal
// fields travel as strings to keep precision across consumers.
type TradeMessage struct {
	BidOrderID  string `json:"bidOrderID"`
	AskOrderID  string `json:"askOrderID"`
	BidPrice    string `json:"bidPrice"`
	AskPrice    string `json:"askPrice"`
	Quantity    string `json:"quantity"`
	TimestampMs int64  `json:"timestampMs"`
}

// FromTrades converts engine trade reports to wire messages
func FromTrades(trades core.Trades, timestampMs int64) []TradeMessage {
	if len(trades) == 0 {
		return nil
	}

	messages := make([]TradeMessage, 0, len(trades))
	for _, trade := range trades {
		messages = append(messages, TradeMessage{
			BidOrderID:  trade.Bid.OrderID,
			AskOrderID:  trade.Ask.OrderID,
			BidPrice:    trade.Bid.Price.String(),
			AskPrice:    trade.Ask.Price.String(),
			Quantity:    trade.Bid.Quantity.String(),
			TimestampMs: timestampMs,
		})
	}
	return messages
}
