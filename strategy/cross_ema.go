package strategy

import (
	"github.com/markcheno/go-talib"

	"github.com/oraclelink/oraclelink/core"
)

// CrossEMA signals on a fast EMA crossing a slow SMA of closes: a cross above
// is a long signal, a cross below a short one. Only the bar where the cross
// happens produces a signal, so the strategy is quiet while the averages stay
// on one side of each other.
type CrossEMA struct {
	timeframe string
	emaPeriod int
	smaPeriod int
}

// NewCrossEMA creates the strategy. The fast period must stay below the slow
// one; out-of-range values fall back to the 9/21 pairing.
func NewCrossEMA(timeframe string, emaPeriod, smaPeriod int) *CrossEMA {
	if emaPeriod <= 0 || smaPeriod <= emaPeriod {
		emaPeriod = 9
		smaPeriod = 21
	}
	return &CrossEMA{timeframe: timeframe, emaPeriod: emaPeriod, smaPeriod: smaPeriod}
}

// Timeframe returns the candle interval the strategy expects
func (s CrossEMA) Timeframe() string {
	return s.timeframe
}

// WarmupPeriod returns the minimum history length
func (s CrossEMA) WarmupPeriod() int {
	return s.smaPeriod * 2
}

// Evaluate recomputes both averages over the warmup window and reports the
// direction of a cross on the latest bar
func (s CrossEMA) Evaluate(df *core.Dataframe) core.Advice {
	if df.Len() < s.WarmupPeriod() {
		return core.Advice{}
	}

	// the window is fixed so the EMA seed point never drifts as bars accumulate
	sample := df.Sample(s.WarmupPeriod())
	fast := core.Series[float64](talib.Ema(sample.Close.Values(), s.emaPeriod))
	slow := core.Series[float64](talib.Sma(sample.Close.Values(), s.smaPeriod))

	if fast.Crossover(slow) {
		return core.Advice{Confidence: 1}
	}
	if fast.Crossunder(slow) {
		return core.Advice{Confidence: -1}
	}
	return core.Advice{}
}
