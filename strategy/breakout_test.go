package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oraclelink/oraclelink/core"
)

func breakoutDF(closes []float64) *core.Dataframe {
	return dfFromCloses(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), closes, nil)
}

func TestBreakout_LongAboveResistance(t *testing.T) {
	strat := NewBreakout("1h", 2)

	// Prior structure tops out at 12; the last close clears it.
	advice := strat.Evaluate(breakoutDF([]float64{10, 12, 10, 11, 10.5, 13}))
	assert.Equal(t, 1.0, advice.Confidence)
}

func TestBreakout_ShortBelowSupport(t *testing.T) {
	strat := NewBreakout("1h", 2)

	advice := strat.Evaluate(breakoutDF([]float64{10, 12, 10, 11, 10.5, 9}))
	assert.Equal(t, -1.0, advice.Confidence)
}

func TestBreakout_NeutralInsideRange(t *testing.T) {
	strat := NewBreakout("1h", 2)

	advice := strat.Evaluate(breakoutDF([]float64{10, 12, 10, 11, 10.5, 11}))
	assert.True(t, advice.Neutral())
}

func TestBreakout_NeutralBeforeWarmup(t *testing.T) {
	strat := NewBreakout("1h", 2)

	advice := strat.Evaluate(breakoutDF([]float64{10, 12, 10}))
	assert.True(t, advice.Neutral())
}

func TestBreakout_DefaultOrder(t *testing.T) {
	strat := NewBreakout("1h", 0)
	assert.Equal(t, 4*2+2, strat.WarmupPeriod())
	assert.Equal(t, "1h", strat.Timeframe())
}

func TestSupportResistance(t *testing.T) {
	support, resistance := supportResistance([]float64{10, 12, 10, 11, 10.5}, 2)

	assert.Equal(t, []float64{10, 10}, support)
	assert.Equal(t, []float64{12}, resistance)
}

func TestSwingTrend_BuysValleyInUptrend(t *testing.T) {
	strat := NewSwingTrend("1h", true, core.DefaultLog)

	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	df := dfFromCloses(at, uptrendCloses, confirmingVolumes(len(uptrendCloses)))

	advice := strat.Evaluate(df)
	assert.Equal(t, 1.0, advice.Confidence)
}

func TestSwingTrend_SellsPeakInDowntrend(t *testing.T) {
	strat := NewSwingTrend("1h", true, core.DefaultLog)

	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	df := dfFromCloses(at, downtrendCloses, confirmingVolumes(len(downtrendCloses)))

	advice := strat.Evaluate(df)
	assert.Equal(t, -1.0, advice.Confidence)
}

func TestSwingTrend_NeutralWithoutVolumeConfirmation(t *testing.T) {
	strat := NewSwingTrend("1h", true, core.DefaultLog)

	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	df := dfFromCloses(at, uptrendCloses, nil)

	assert.True(t, strat.Evaluate(df).Neutral())
}
