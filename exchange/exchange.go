// Package exchange provides market data feeders: a Binance-backed live feed
// and a CSV file feed for backtests.
package exchange

import "fmt"

// FetchError wraps a market data retrieval failure with its request context.
// Callers use it to tell transient feed problems from programming errors.
type FetchError struct {
	Symbol   string
	Interval string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s %s candles: %v", e.Symbol, e.Interval, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
