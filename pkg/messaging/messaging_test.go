package messaging

import (
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvenue/matchd/pkg/core"
)

func TestFromTrades(t *testing.T) {
	trades := core.Trades{
		{
			Bid: core.TradeLeg{OrderID: "b1", Price: fpdecimal.FromInt(105), Quantity: fpdecimal.FromInt(3)},
			Ask: core.TradeLeg{OrderID: "a1", Price: fpdecimal.FromInt(99), Quantity: fpdecimal.FromInt(3)},
		},
		{
			Bid: core.TradeLeg{OrderID: "b1", Price: fpdecimal.FromInt(105), Quantity: fpdecimal.FromInt(2)},
			Ask: core.TradeLeg{OrderID: "a2", Price: fpdecimal.FromInt(100), Quantity: fpdecimal.FromInt(2)},
		},
	}

	messages := FromTrades(trades, 1700000000000)
	require.Len(t, messages, 2)

	assert.Equal(t, "b1", messages[0].BidOrderID)
	assert.Equal(t, "a1", messages[0].AskOrderID)
	assert.Equal(t, "105", messages[0].BidPrice)
	assert.Equal(t, "99", messages[0].AskPrice)
	assert.Equal(t, "3", messages[0].Quantity)
	assert.Equal(t, int64(1700000000000), messages[0].TimestampMs)

	assert.Equal(t, "a2", messages[1].AskOrderID)
	assert.Equal(t, "2", messages[1].Quantity)
}

func TestFromTrades_Empty(t *testing.T) {
	assert.Nil(t, FromTrades(nil, 0))
	assert.Nil(t, FromTrades(core.Trades{}, 0))
}

func TestMockSender(t *testing.T) {
	sender := NewMockSender()

	require.NoError(t, sender.SendTrades([]TradeMessage{{BidOrderID: "b1"}}))
	require.NoError(t, sender.SendTrades([]TradeMessage{{BidOrderID: "b2"}}))

	sent := sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "b1", sent[0].BidOrderID)
	assert.Equal(t, "b2", sent[1].BidOrderID)

	assert.False(t, sender.Closed())
	require.NoError(t, sender.Close())
	assert.True(t, sender.Closed())
}
