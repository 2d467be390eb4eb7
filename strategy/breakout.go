package strategy

import (
	"github.com/oraclelink/oraclelink/core"
)

// Breakout watches support and resistance levels built from local close
// extrema. A close above the nearest resistance signals long, a close below
// the nearest support signals short. The last completed candle is evaluated;
// the level set excludes it so a breakout is measured against prior
// structure.
type Breakout struct {
	timeframe string
	order     int
}

// NewBreakout creates the strategy. order is the number of bars on each side
// a close must dominate to count as a local extremum.
func NewBreakout(timeframe string, order int) *Breakout {
	if order <= 0 {
		order = 4
	}
	return &Breakout{timeframe: timeframe, order: order}
}

// Timeframe returns the candle interval the strategy expects
func (b Breakout) Timeframe() string {
	return b.timeframe
}

// WarmupPeriod returns the minimum history length
func (b Breakout) WarmupPeriod() int {
	return b.order*2 + 2
}

// Evaluate checks the latest close against the most recent support and
// resistance levels
func (b Breakout) Evaluate(df *core.Dataframe) core.Advice {
	if df.Len() < b.WarmupPeriod() {
		return core.Advice{}
	}

	closes := df.Close.Values()
	lastClose := closes[len(closes)-1]

	// levels come from everything before the candle being judged
	support, resistance := supportResistance(closes[:len(closes)-1], b.order)
	if len(support) == 0 || len(resistance) == 0 {
		return core.Advice{}
	}

	nearestSupport := support[len(support)-1]
	nearestResistance := resistance[len(resistance)-1]

	if lastClose > nearestResistance {
		return core.Advice{Confidence: 1}
	}
	if lastClose < nearestSupport {
		return core.Advice{Confidence: -1}
	}
	return core.Advice{}
}

// supportResistance collects close prices that are local minima (support) or
// local maxima (resistance) over a window of order bars on each side. Ties
// count, matching a greater-equal comparison on both flanks.
func supportResistance(closes []float64, order int) (support, resistance []float64) {
	for i := range closes {
		isMax := true
		isMin := true
		for j := i - order; j <= i+order; j++ {
			if j < 0 || j >= len(closes) || j == i {
				continue
			}
			if closes[j] > closes[i] {
				isMax = false
			}
			if closes[j] < closes[i] {
				isMin = false
			}
			if !isMax && !isMin {
				break
			}
		}
		if isMax {
			resistance = append(resistance, closes[i])
		}
		if isMin {
			support = append(support, closes[i])
		}
	}
	return support, resistance
}
