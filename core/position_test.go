package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition_ValidatesAgainstFillPrice(t *testing.T) {
	// Protection levels that are valid for the limit price can still be
	// invalid for the actual fill price.
	req := NewOrderRequest("BTCUSDT", SideLong, ActionOpen, 1, time.Now()).
		WithProtections(95, 110)

	_, err := NewPosition(req, 90, 1, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStopLoss)

	pos, err := NewPosition(req, 100, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100.0, pos.EntryPrice)
	assert.Equal(t, req.RootID, pos.RootID)
	assert.NotEqual(t, req.ID, pos.ID)
}

func TestNewPosition_RejectsNonPositiveQuantity(t *testing.T) {
	req := NewOrderRequest("BTCUSDT", SideLong, ActionOpen, 1, time.Now())

	_, err := NewPosition(req, 100, 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewPosition(req, 100, -1, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPosition_UnrealizedPnL(t *testing.T) {
	long := Position{Side: SideLong, EntryPrice: 100, Quantity: 2}
	assert.Equal(t, 20.0, long.UnrealizedPnL(110))
	assert.Equal(t, -20.0, long.UnrealizedPnL(90))

	short := Position{Side: SideShort, EntryPrice: 100, Quantity: 2}
	assert.Equal(t, 20.0, short.UnrealizedPnL(90))
	assert.Equal(t, -20.0, short.UnrealizedPnL(110))
}

func TestNewTradeRecord_PnL(t *testing.T) {
	long := Position{RootID: "root", Symbol: "BTCUSDT", Side: SideLong, EntryPrice: 100, Quantity: 2}
	rec := NewTradeRecord(long, 2, 110, time.Now())
	assert.Equal(t, 20.0, rec.PnL)
	assert.Equal(t, "root", rec.RootID)
	assert.InDelta(t, 0.1, rec.Return(), 1e-12)

	short := Position{Side: SideShort, EntryPrice: 100, Quantity: 2}
	rec = NewTradeRecord(short, 2, 110, time.Now())
	assert.Equal(t, -20.0, rec.PnL)
}

func TestNewTradeRecord_FreshIDPerRecord(t *testing.T) {
	pos := Position{RootID: "root", Side: SideLong, EntryPrice: 100, Quantity: 10}

	first := NewTradeRecord(pos, 4, 105, time.Now())
	second := NewTradeRecord(pos, 6, 105, time.Now())

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.RootID, second.RootID)
}

func TestCandle_Contains(t *testing.T) {
	candle := Candle{Low: 95, High: 105}

	assert.True(t, candle.Contains(95))
	assert.True(t, candle.Contains(100))
	assert.True(t, candle.Contains(105))
	assert.False(t, candle.Contains(94.99))
	assert.False(t, candle.Contains(105.01))
}

func TestCandle_ToSlice(t *testing.T) {
	candle := Candle{
		Time:   time.Unix(1685577600, 0).UTC(),
		Open:   100.5,
		Close:  101.25,
		Low:    99.75,
		High:   102,
		Volume: 1234.5,
	}

	assert.Equal(t,
		[]string{"1685577600", "100.5", "101.25", "99.75", "102", "1234.5"},
		candle.ToSlice(-1))
	assert.Equal(t,
		[]string{"1685577600", "100.50", "101.25", "99.75", "102.00", "1234.50"},
		candle.ToSlice(2))
}

func TestSeries_LastAndCross(t *testing.T) {
	s := Series[float64]{1, 2, 3}
	assert.Equal(t, 3.0, s.Last(0))
	assert.Equal(t, 2.0, s.Last(1))
	assert.Equal(t, Series[float64]{2, 3}, s.LastValues(2))

	fast := Series[float64]{1, 3}
	slow := Series[float64]{2, 2}
	assert.True(t, fast.Crossover(slow))
	assert.False(t, fast.Crossunder(slow))
	assert.True(t, slow.Crossunder(fast))
}
