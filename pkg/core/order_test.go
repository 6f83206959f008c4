package core

import (
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimitOrder(t *testing.T) {
	order, err := NewLimitOrder("ord-1", Buy, fpdecimal.FromInt(10), fpdecimal.FromInt(100), GoodTillCancel)
	require.NoError(t, err)

	assert.Equal(t, "ord-1", order.ID())
	assert.Equal(t, Buy, order.Side())
	assert.Equal(t, GoodTillCancel, order.OrderType())
	assert.Equal(t, fpdecimal.FromInt(100), order.Price())
	assert.Equal(t, fpdecimal.FromInt(10), order.InitialQuantity())
	assert.Equal(t, fpdecimal.FromInt(10), order.RemainingQuantity())
	assert.False(t, order.IsFilled())
}

func TestNewLimitOrder_Validation(t *testing.T) {
	tests := []struct {
		name      string
		quantity  fpdecimal.Decimal
		price     fpdecimal.Decimal
		orderType OrderType
		wantErr   error
	}{
		{"zero quantity", fpdecimal.Zero, fpdecimal.FromInt(100), GoodTillCancel, ErrInvalidQuantity},
		{"negative quantity", fpdecimal.FromInt(-5), fpdecimal.FromInt(100), GoodTillCancel, ErrInvalidQuantity},
		{"zero price", fpdecimal.FromInt(10), fpdecimal.Zero, GoodTillCancel, ErrInvalidPrice},
		{"negative price", fpdecimal.FromInt(10), fpdecimal.FromInt(-1), GoodForDay, ErrInvalidPrice},
		{"market via limit constructor", fpdecimal.FromInt(10), fpdecimal.FromInt(100), Market, ErrInvalidOrderType},
		{"unknown type", fpdecimal.FromInt(10), fpdecimal.FromInt(100), OrderType("BOGUS"), ErrInvalidOrderType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLimitOrder("ord-1", Sell, tt.quantity, tt.price, tt.orderType)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewMarketOrder(t *testing.T) {
	order, err := NewMarketOrder("mkt-1", Sell, fpdecimal.FromInt(3))
	require.NoError(t, err)

	assert.Equal(t, Market, order.OrderType())
	assert.Equal(t, fpdecimal.Zero, order.Price())

	_, err = NewMarketOrder("mkt-2", Sell, fpdecimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrder_Fill(t *testing.T) {
	order, err := NewLimitOrder("ord-1", Buy, fpdecimal.FromInt(10), fpdecimal.FromInt(100), GoodTillCancel)
	require.NoError(t, err)

	order.Fill(fpdecimal.FromInt(4))
	assert.Equal(t, fpdecimal.FromInt(6), order.RemainingQuantity())
	assert.Equal(t, fpdecimal.FromInt(4), order.FilledQuantity())
	assert.False(t, order.IsFilled())

	order.Fill(fpdecimal.FromInt(6))
	assert.True(t, order.IsFilled())
	assert.Equal(t, fpdecimal.Zero, order.RemainingQuantity())
}

func TestOrder_FillPastRemainingPanics(t *testing.T) {
	order, err := NewLimitOrder("ord-1", Buy, fpdecimal.FromInt(5), fpdecimal.FromInt(100), GoodTillCancel)
	require.NoError(t, err)

	assert.Panics(t, func() {
		order.Fill(fpdecimal.FromInt(6))
	})
}

func TestSide_String(t *testing.T) {
	if Buy.String() != "BUY" {
		t.Errorf("expected BUY, got %s", Buy.String())
	}
	if Sell.String() != "SELL" {
		t.Errorf("expected SELL, got %s", Sell.String())
	}
	if Side(42).String() != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %s", Side(42).String())
	}
}

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}
