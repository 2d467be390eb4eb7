package strategy

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/oraclelink/oraclelink/core"
)

// ShadowsTrendingTouch trades moving average touches. It looks for a candle
// whose body closed away from the SMA in the direction of its color while a
// long wick on the other side reached down (or up) to touch the average. The
// wick extreme, padded slightly, becomes the stop-loss.
type ShadowsTrendingTouch struct {
	timeframe string

	smaPeriod               int
	shadowToBodyRatio       float64
	shadowPadding           float64
	oppositeShadowBodyRatio float64
}

// NewShadowsTrendingTouch creates the strategy with its standard tuning
func NewShadowsTrendingTouch(timeframe string) *ShadowsTrendingTouch {
	return &ShadowsTrendingTouch{
		timeframe:               timeframe,
		smaPeriod:               7,
		shadowToBodyRatio:       1.25,
		shadowPadding:           2,
		oppositeShadowBodyRatio: 0.25,
	}
}

// Timeframe returns the candle interval the strategy expects
func (s ShadowsTrendingTouch) Timeframe() string {
	return s.timeframe
}

// WarmupPeriod returns the minimum history length
func (s ShadowsTrendingTouch) WarmupPeriod() int {
	return s.smaPeriod + 1
}

// Evaluate inspects the latest candle against the SMA of closes
func (s ShadowsTrendingTouch) Evaluate(df *core.Dataframe) core.Advice {
	if df.Len() < s.WarmupPeriod() {
		return core.Advice{}
	}

	last := df.Candle(df.Len() - 1)
	sma := talib.Sma(df.Close.Values(), s.smaPeriod)
	smaLast := sma[len(sma)-1]

	// the body itself must not cross the average
	if last.Open < smaLast && smaLast < last.Close {
		return core.Advice{}
	}

	aboveSMA := last.Close > smaLast
	bullish := last.Open < last.Close

	// bullish candles must close above the average, bearish below
	if bullish != aboveSMA {
		return core.Advice{}
	}

	// shadows are measured from the body edge on their own side
	var touchShadow, oppositeShadow float64
	if bullish {
		touchShadow = last.Open - last.Low
		oppositeShadow = last.High - last.Close
	} else {
		touchShadow = last.High - last.Open
		oppositeShadow = last.Close - last.Low
	}

	body := math.Abs(last.Open - last.Close)
	if body == 0 {
		return core.Advice{}
	}
	if touchShadow/body < s.shadowToBodyRatio {
		return core.Advice{}
	}
	if oppositeShadow/body > s.oppositeShadowBodyRatio {
		return core.Advice{}
	}

	if bullish && last.Low-s.shadowPadding <= smaLast {
		req := core.NewOrderRequest(df.Symbol, core.SideLong, core.ActionOpen, 1, last.Time).
			WithProtections(last.Low-s.shadowPadding, 0)
		return core.Advice{Confidence: 1, Request: &req}
	}

	if !bullish && last.High+s.shadowPadding >= smaLast {
		req := core.NewOrderRequest(df.Symbol, core.SideShort, core.ActionOpen, -1, last.Time).
			WithProtections(last.High+s.shadowPadding, 0)
		return core.Advice{Confidence: -1, Request: &req}
	}

	return core.Advice{}
}
