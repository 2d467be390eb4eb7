package core

import (
	"fmt"
	"strconv"
	"time"
)

// Candle represents one OHLCV observation for a fixed time interval
type Candle struct {
	Symbol    string
	Time      time.Time
	CloseTime time.Time
	Open      float64
	Close     float64
	Low       float64
	High      float64
	Volume    float64
	Complete  bool
}

// Contains reports whether a price falls inside the candle's low-high range
func (c Candle) Contains(price float64) bool {
	return c.Low <= price && price <= c.High
}

// ToSlice converts a candle to a CSV row of unix time, open, close, low,
// high and volume. A negative precision keeps the shortest exact float form.
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

func (c Candle) String() string {
	return fmt.Sprintf("[%s] %s O: %.4f H: %.4f L: %.4f C: %.4f V: %.2f",
		c.Time.UTC().Format(time.RFC3339), c.Symbol, c.Open, c.High, c.Low, c.Close, c.Volume)
}
