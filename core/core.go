package core

import (
	"context"
	"time"
)

// Feeder supplies ordered OHLCV data for a symbol and interval
type Feeder interface {
	LastQuote(ctx context.Context, symbol string) (float64, error)
	CandlesByPeriod(ctx context.Context, symbol, interval string, start, end time.Time) ([]Candle, error)
	CandlesByLimit(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// Advice is a strategy's output for one evaluation: a directional confidence
// in [-1, 1], or a fully-formed order request when the strategy wants control
// over price, quantity, or protections. When Request is set it takes
// precedence over Confidence.
type Advice struct {
	Confidence float64
	Request    *OrderRequest
}

// Neutral reports whether the advice carries no actionable signal
func (a Advice) Neutral() bool {
	const epsilon = 1e-6
	return a.Request == nil && a.Confidence > -epsilon && a.Confidence < epsilon
}

// Strategy evaluates bar history into a trading advice.
//
// Evaluate must be deterministic for identical input history; strategies
// keeping internal state across calls must document their statefulness.
// Insufficient history yields a neutral advice, never an error.
type Strategy interface {
	// Timeframe is the candle interval the strategy expects. eg: 1m, 1h, 1d
	Timeframe() string
	// WarmupPeriod is the minimum number of bars required before the
	// strategy can produce a signal.
	WarmupPeriod() int
	// Evaluate inspects the history up to and including the current bar.
	Evaluate(df *Dataframe) Advice
}

// Notifier receives user-facing events from the execution engines
type Notifier interface {
	Notify(string)
	OnTrade(record TradeRecord)
	OnError(err error)
}

// NotifierWithStart is a notifier with its own polling loop
type NotifierWithStart interface {
	Notifier
	Start()
}
