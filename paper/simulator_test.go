package paper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclelink/oraclelink/core"
)

func barSeries(symbol string, bars ...[4]float64) *core.Dataframe {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, len(bars))
	for i, b := range bars {
		candles[i] = core.Candle{
			Symbol:   symbol,
			Time:     base.Add(time.Duration(i) * time.Minute),
			Open:     b[0],
			High:     b[1],
			Low:      b[2],
			Close:    b[3],
			Volume:   100,
			Complete: true,
		}
	}
	return core.NewDataframe(symbol, candles)
}

func TestSimulator_RejectsShortDataframe(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	sim := NewSimulator(portfolio, &stubStrategy{warmup: 1})
	err = sim.Run(barSeries("BTCUSDT", [4]float64{10, 11, 9, 10}))
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestSimulator_FillsAtNextOpen(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	strat := &stubStrategy{warmup: 1, advices: []core.Advice{{Confidence: 1}}}
	sim := NewSimulator(portfolio, strat)

	// Signal on the first bar's close of 10; the fill happens at the second
	// bar's open of 12, not at the observed price.
	df := barSeries("BTCUSDT",
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{12, 12.5, 11.5, 12},
		[4]float64{12, 12.5, 11.5, 12},
	)
	require.NoError(t, sim.Run(df))

	positions := portfolio.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, 12.0, positions[0].EntryPrice)

	// Sized at the signal close, then clamped to what the balance affords at
	// the open: 1000/12 floored to six decimals.
	assert.Equal(t, 83.333333, positions[0].Quantity)
}

func TestSimulator_SlippageMovesFillAgainstOrder(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	strat := &stubStrategy{warmup: 1, advices: []core.Advice{{Confidence: 1}}}
	sim := NewSimulator(portfolio, strat, WithSlippage(0.01))

	df := barSeries("BTCUSDT",
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 100},
	)
	require.NoError(t, sim.Run(df))

	positions := portfolio.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, 101.0, positions[0].EntryPrice)
}

func TestSimulator_EquityCurveHasOneSamplePerBar(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	sim := NewSimulator(portfolio, &stubStrategy{warmup: 100})

	df := barSeries("BTCUSDT",
		[4]float64{10, 11, 9, 10},
		[4]float64{10, 11, 9, 10},
		[4]float64{10, 11, 9, 10},
		[4]float64{10, 11, 9, 10},
		[4]float64{10, 11, 9, 10},
	)
	require.NoError(t, sim.Run(df))

	curve := portfolio.EquityCurve()
	require.Len(t, curve, df.Len())
	for _, sample := range curve {
		assert.Equal(t, 1000.0, sample.Value)
	}
}

func TestSimulator_StopLossExitsAtExactPrice(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	open := core.NewOrderRequest("BTCUSDT", core.SideLong, core.ActionOpen, 1, time.Now()).
		WithQuantity(1).
		WithProtections(95, 0)
	strat := &stubStrategy{warmup: 1, advices: []core.Advice{{Request: &open}}}

	sim := NewSimulator(portfolio, strat, WithFee(0.001))

	df := barSeries("BTCUSDT",
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 100},
		[4]float64{99, 99, 94, 94},
		[4]float64{94, 95, 93, 94},
	)
	require.NoError(t, sim.Run(df))

	records := portfolio.TradeRecords()
	require.Len(t, records, 1)

	// The exit fills at the stop level itself, not at the bar close.
	assert.Equal(t, 95.0, records[0].ExitPrice)
	assert.Equal(t, -5.0, records[0].PnL)
	assert.Empty(t, portfolio.Positions())
}

func TestSimulator_TakeProfitExitAfterFill(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	open := core.NewOrderRequest("BTCUSDT", core.SideLong, core.ActionOpen, 1, time.Now()).
		WithQuantity(1).
		WithProtections(0, 15)
	strat := &stubStrategy{warmup: 1, advices: []core.Advice{{Request: &open}}}

	sim := NewSimulator(portfolio, strat)

	df := barSeries("BTCUSDT",
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{12, 16, 11.5, 14},
		[4]float64{14, 14.5, 13.5, 14},
	)
	require.NoError(t, sim.Run(df))

	records := portfolio.TradeRecords()
	require.Len(t, records, 1)
	assert.Equal(t, 12.0, records[0].EntryPrice)
	assert.Equal(t, 15.0, records[0].ExitPrice)
	assert.Equal(t, 3.0, records[0].PnL)
}

func TestSimulator_TakeProfitOnFinalBar(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	open := core.NewOrderRequest("BTCUSDT", core.SideLong, core.ActionOpen, 1, time.Now()).
		WithQuantity(1).
		WithProtections(0, 14.5)
	strat := &stubStrategy{warmup: 1, advices: []core.Advice{{Request: &open}}}

	sim := NewSimulator(portfolio, strat)

	// The take profit is only reachable inside the last bar's range; the run
	// still has to close the position there rather than leave it open.
	df := barSeries("BTCUSDT",
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{12, 13, 11.5, 12.5},
		[4]float64{13, 15, 12.5, 14},
	)
	require.NoError(t, sim.Run(df))

	records := portfolio.TradeRecords()
	require.Len(t, records, 1)
	assert.Equal(t, 12.0, records[0].EntryPrice)
	assert.Equal(t, 14.5, records[0].ExitPrice)
	assert.Empty(t, portfolio.Positions())
}

func TestSimulator_BalanceIdentity(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	open := core.NewOrderRequest("BTCUSDT", core.SideLong, core.ActionOpen, 1, time.Now()).
		WithQuantity(1).
		WithProtections(95, 0)
	strat := &stubStrategy{warmup: 1, advices: []core.Advice{{Request: &open}}}

	sim := NewSimulator(portfolio, strat, WithFee(0.001))

	df := barSeries("BTCUSDT",
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 100},
		[4]float64{99, 99, 94, 94},
		[4]float64{94, 95, 93, 94},
	)
	require.NoError(t, sim.Run(df))
	require.Empty(t, portfolio.Positions())

	var totalPnL float64
	for _, record := range portfolio.TradeRecords() {
		totalPnL += record.PnL
	}

	// With every position closed the trade log explains the balance exactly.
	got := portfolio.Balance() - portfolio.InitialBalance()
	assert.InDelta(t, totalPnL-portfolio.FeesPaid(), got, 1e-9)
}

func TestSimulator_ExitPriorityPolicies(t *testing.T) {
	cases := []struct {
		name     string
		priority ExitPriority
		want     float64
	}{
		{"take profit wins", ExitTakeProfitPriority, 110},
		{"stop loss wins", ExitStopLossPriority, 95},
		{"worst case", ExitWorstCase, 95},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			portfolio, err := NewPortfolio(1000)
			require.NoError(t, err)

			open := core.NewOrderRequest("BTCUSDT", core.SideLong, core.ActionOpen, 1, time.Now()).
				WithQuantity(1).
				WithProtections(95, 110)
			strat := &stubStrategy{warmup: 1, advices: []core.Advice{{Request: &open}}}

			sim := NewSimulator(portfolio, strat, WithExitPriority(tc.priority))

			// The third bar's range covers both protection levels.
			df := barSeries("BTCUSDT",
				[4]float64{100, 101, 99, 100},
				[4]float64{100, 101, 99, 100},
				[4]float64{100, 111, 94, 100},
				[4]float64{100, 101, 99, 100},
			)
			require.NoError(t, sim.Run(df))

			records := portfolio.TradeRecords()
			require.Len(t, records, 1)
			assert.Equal(t, tc.want, records[0].ExitPrice)
		})
	}
}

func TestSimulator_PendingClearedEachBar(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	// A buy limit far below the market never fills and is dropped, leaving
	// the queue empty after the run.
	limit := core.NewOrderRequest("BTCUSDT", core.SideLong, core.ActionOpen, 1, time.Now()).
		WithPrice(1).
		WithQuantity(1)
	strat := &stubStrategy{warmup: 1, advices: []core.Advice{{Request: &limit}}}

	sim := NewSimulator(portfolio, strat)

	df := barSeries("BTCUSDT",
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 101, 99, 100},
	)
	require.NoError(t, sim.Run(df))

	assert.Empty(t, portfolio.Positions())
	assert.Empty(t, portfolio.takePending())
	assert.Equal(t, 1000.0, portfolio.Balance())
}

func TestSimulator_WaitsForWarmup(t *testing.T) {
	portfolio, err := NewPortfolio(1000)
	require.NoError(t, err)

	strat := &stubStrategy{warmup: 3, advices: []core.Advice{{Confidence: 1}}}
	sim := NewSimulator(portfolio, strat)

	df := barSeries("BTCUSDT",
		[4]float64{10, 11, 9, 10},
		[4]float64{10, 11, 9, 10},
		[4]float64{10, 11, 9, 10},
		[4]float64{10, 11, 9, 10},
	)
	require.NoError(t, sim.Run(df))

	// The only evaluation happens once three bars of history exist.
	assert.Equal(t, 1, strat.calls)
}
