package core

import (
	"time"
)

// Dataframe is a time series container for OHLCV and custom indicator data
type Dataframe struct {
	Symbol string

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]

	Time       []time.Time
	CloseTime  []time.Time
	LastUpdate time.Time

	// Custom user metadata for indicators
	Metadata map[string]Series[float64]
}

// NewDataframe builds a dataframe from an ordered slice of candles
func NewDataframe(symbol string, candles []Candle) *Dataframe {
	df := &Dataframe{
		Symbol:   symbol,
		Metadata: make(map[string]Series[float64]),
	}
	for _, candle := range candles {
		df.Update(candle)
	}
	return df
}

// Len returns the number of bars in the dataframe
func (df *Dataframe) Len() int {
	return len(df.Time)
}

// Candle reconstructs the bar at position i
func (df *Dataframe) Candle(i int) Candle {
	candle := Candle{
		Symbol:   df.Symbol,
		Time:     df.Time[i],
		Open:     df.Open[i],
		Close:    df.Close[i],
		Low:      df.Low[i],
		High:     df.High[i],
		Volume:   df.Volume[i],
		Complete: true,
	}
	if len(df.CloseTime) > i {
		candle.CloseTime = df.CloseTime[i]
	}
	return candle
}

// Update appends a new candle, or replaces the last bar when the open
// timestamp is unchanged (still-open candle refreshed by a live feed)
func (df *Dataframe) Update(candle Candle) {
	if n := len(df.Time); n > 0 && candle.Time.Equal(df.Time[n-1]) {
		last := n - 1
		df.Open[last] = candle.Open
		df.Close[last] = candle.Close
		df.High[last] = candle.High
		df.Low[last] = candle.Low
		df.Volume[last] = candle.Volume
		df.CloseTime[last] = candle.CloseTime
		df.LastUpdate = candle.Time
		return
	}

	df.Open = append(df.Open, candle.Open)
	df.Close = append(df.Close, candle.Close)
	df.High = append(df.High, candle.High)
	df.Low = append(df.Low, candle.Low)
	df.Volume = append(df.Volume, candle.Volume)
	df.Time = append(df.Time, candle.Time)
	df.CloseTime = append(df.CloseTime, candle.CloseTime)
	df.LastUpdate = candle.Time
}

// Shift drops the oldest bar, keeping the window size bounded in live mode
func (df *Dataframe) Shift() {
	if len(df.Time) == 0 {
		return
	}
	df.Open = df.Open[1:]
	df.Close = df.Close[1:]
	df.High = df.High[1:]
	df.Low = df.Low[1:]
	df.Volume = df.Volume[1:]
	df.Time = df.Time[1:]
	df.CloseTime = df.CloseTime[1:]
	for key := range df.Metadata {
		if len(df.Metadata[key]) > 0 {
			df.Metadata[key] = df.Metadata[key][1:]
		}
	}
}

// Until returns a view of the first 'size' bars, inclusive of bar size-1.
// Used by the backtest loop to present history without look-ahead.
func (df *Dataframe) Until(size int) *Dataframe {
	if size >= len(df.Time) {
		return df
	}

	view := &Dataframe{
		Symbol:     df.Symbol,
		Close:      df.Close[:size],
		Open:       df.Open[:size],
		High:       df.High[:size],
		Low:        df.Low[:size],
		Volume:     df.Volume[:size],
		Time:       df.Time[:size],
		CloseTime:  df.CloseTime[:size],
		LastUpdate: df.Time[size-1],
		Metadata:   make(map[string]Series[float64]),
	}

	for key := range df.Metadata {
		if len(df.Metadata[key]) >= size {
			view.Metadata[key] = df.Metadata[key][:size]
		}
	}

	return view
}

// Sample returns a subset of the dataframe with the last 'positions' elements
// Used for windowing operations on a dataframe
func (df Dataframe) Sample(positions int) Dataframe {
	size := len(df.Time)
	start := size - positions

	// Return the entire dataframe if requested sample is larger than dataframe
	if start <= 0 {
		return df
	}

	sample := Dataframe{
		Symbol:     df.Symbol,
		Close:      df.Close.LastValues(positions),
		Open:       df.Open.LastValues(positions),
		High:       df.High.LastValues(positions),
		Low:        df.Low.LastValues(positions),
		Volume:     df.Volume.LastValues(positions),
		Time:       df.Time[start:],
		CloseTime:  df.CloseTime[start:],
		LastUpdate: df.LastUpdate,
		Metadata:   make(map[string]Series[float64]),
	}

	// Also copy metadata series
	for key := range df.Metadata {
		sample.Metadata[key] = df.Metadata[key].LastValues(positions)
	}

	return sample
}
