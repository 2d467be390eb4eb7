package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclelink/oraclelink/core"
)

func shadowDF(last core.Candle) *core.Dataframe {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, 0, 8)
	for i := 0; i < 7; i++ {
		candles = append(candles, core.Candle{
			Symbol: "BTCUSDT",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   100, Close: 100, High: 100.5, Low: 99.5, Volume: 100,
		})
	}
	last.Symbol = "BTCUSDT"
	last.Time = base.Add(7 * time.Minute)
	last.Volume = 100
	return core.NewDataframe("BTCUSDT", append(candles, last))
}

func TestShadowsTrendingTouch_LongSignal(t *testing.T) {
	strat := NewShadowsTrendingTouch("15m")

	// A bullish hammer closing above the average, with a long lower wick
	// reaching down to it.
	advice := strat.Evaluate(shadowDF(core.Candle{
		Open: 101, Close: 103, High: 103.5, Low: 95,
	}))

	require.NotNil(t, advice.Request)
	assert.Equal(t, core.SideLong, advice.Request.Side)
	assert.Equal(t, core.ActionOpen, advice.Request.Action)
	assert.Equal(t, 1.0, advice.Confidence)

	// Stop-loss sits below the wick extreme by the padding.
	require.NotNil(t, advice.Request.StopLoss)
	assert.Equal(t, 93.0, *advice.Request.StopLoss)
}

func TestShadowsTrendingTouch_ShortSignal(t *testing.T) {
	strat := NewShadowsTrendingTouch("15m")

	// A bearish shooting star closing below the average, upper wick touching it.
	advice := strat.Evaluate(shadowDF(core.Candle{
		Open: 97, Close: 95, High: 103, Low: 94.8,
	}))

	require.NotNil(t, advice.Request)
	assert.Equal(t, core.SideShort, advice.Request.Side)
	assert.Equal(t, -1.0, advice.Confidence)

	require.NotNil(t, advice.Request.StopLoss)
	assert.Equal(t, 105.0, *advice.Request.StopLoss)
}

func TestShadowsTrendingTouch_NeutralCases(t *testing.T) {
	strat := NewShadowsTrendingTouch("15m")

	// Wick too short relative to the body.
	advice := strat.Evaluate(shadowDF(core.Candle{
		Open: 101, Close: 103, High: 103.5, Low: 100.5,
	}))
	assert.True(t, advice.Neutral())

	// Doji: no body to measure shadows against.
	advice = strat.Evaluate(shadowDF(core.Candle{
		Open: 103, Close: 103, High: 104, Low: 95,
	}))
	assert.True(t, advice.Neutral())

	// Opposite wick too long.
	advice = strat.Evaluate(shadowDF(core.Candle{
		Open: 101, Close: 103, High: 106, Low: 95,
	}))
	assert.True(t, advice.Neutral())
}

func TestShadowsTrendingTouch_NeutralBeforeWarmup(t *testing.T) {
	strat := NewShadowsTrendingTouch("15m")

	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	df := core.NewDataframe("BTCUSDT", []core.Candle{
		{Symbol: "BTCUSDT", Time: base, Open: 100, Close: 100, High: 101, Low: 99},
	})

	assert.True(t, strat.Evaluate(df).Neutral())
	assert.Equal(t, 8, strat.WarmupPeriod())
	assert.Equal(t, "15m", strat.Timeframe())
}
