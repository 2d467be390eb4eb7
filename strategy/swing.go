package strategy

import (
	"github.com/oraclelink/oraclelink/core"
)

// SwingTrend trades with the Dow trend: it buys when the most recent swing
// extremum is a valley inside a confirmed uptrend, and sells when it is a
// peak inside a confirmed downtrend.
//
// The strategy is stateful: it carries the detector's trend memory between
// evaluations, so one instance must not be shared across symbols.
type SwingTrend struct {
	timeframe  string
	checkTrend bool

	detector *DowDetector
	state    TrendState
}

// NewSwingTrend creates the strategy. With checkTrend disabled only the
// swing sequence is used and the confirmed trend direction is ignored.
func NewSwingTrend(timeframe string, checkTrend bool, log core.Logger) *SwingTrend {
	return &SwingTrend{
		timeframe:  timeframe,
		checkTrend: checkTrend,
		detector:   NewDowDetector(log),
	}
}

// Timeframe returns the candle interval the strategy expects
func (s *SwingTrend) Timeframe() string {
	return s.timeframe
}

// WarmupPeriod returns the minimum history length. Swing detection needs a
// reasonable number of bars before two peaks and two valleys exist.
func (s *SwingTrend) WarmupPeriod() int {
	return 30
}

// Evaluate runs trend detection on the history and converts the swing
// structure into a directional confidence
func (s *SwingTrend) Evaluate(df *core.Dataframe) core.Advice {
	info, peaks, valleys, state := s.detector.Detect(df, s.state)
	s.state = state

	if info == nil || len(peaks) == 0 || len(valleys) == 0 {
		return core.Advice{}
	}

	lastPeak := peaks[len(peaks)-1]
	lastValley := valleys[len(valleys)-1]

	if lastPeak < lastValley && (!s.checkTrend || info.Trend == TrendUp) {
		return core.Advice{Confidence: 1}
	}

	if lastValley < lastPeak && (!s.checkTrend || info.Trend == TrendDown) {
		return core.Advice{Confidence: -1}
	}

	return core.Advice{}
}
