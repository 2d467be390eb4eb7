package exchange

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/oraclelink/oraclelink/core"
)

// FeedFile describes one CSV candle file. Rows are
// time,open,close,low,high,volume with time in unix seconds; a header row is
// detected and skipped.
type FeedFile struct {
	Symbol    string
	File      string
	Timeframe string
}

// CSVFeed serves candles from CSV files, resampled to a target timeframe.
// It implements the same feeder contract as the live exchange so a backtest
// and a live run share strategies unchanged.
type CSVFeed struct {
	timeframe string
	candles   map[string][]core.Candle
}

// NewCSVFeed loads the given files and resamples each to the target
// timeframe. Source data must be at the target timeframe or finer.
func NewCSVFeed(targetTimeframe string, feeds ...FeedFile) (*CSVFeed, error) {
	feed := &CSVFeed{
		timeframe: targetTimeframe,
		candles:   make(map[string][]core.Candle),
	}

	for _, f := range feeds {
		candles, err := readCandleFile(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", f.File, err)
		}

		feed.candles[feedKey(f.Symbol, f.Timeframe)] = candles

		if f.Timeframe != targetTimeframe {
			resampled, err := resample(candles, f.Timeframe, targetTimeframe)
			if err != nil {
				return nil, fmt.Errorf("resampling %s: %w", f.File, err)
			}
			feed.candles[feedKey(f.Symbol, targetTimeframe)] = resampled
		}
	}

	return feed, nil
}

func feedKey(symbol, timeframe string) string {
	return fmt.Sprintf("%s--%s", symbol, timeframe)
}

func (c *CSVFeed) series(symbol, interval string) ([]core.Candle, error) {
	candles, ok := c.candles[feedKey(symbol, interval)]
	if !ok || len(candles) == 0 {
		return nil, fmt.Errorf("%w: no candles loaded for %s %s",
			core.ErrInsufficientData, symbol, interval)
	}
	return candles, nil
}

// LastQuote returns the close of the newest candle at the feed's target
// timeframe
func (c *CSVFeed) LastQuote(_ context.Context, symbol string) (float64, error) {
	candles, err := c.series(symbol, c.timeframe)
	if err != nil {
		return 0, err
	}
	return candles[len(candles)-1].Close, nil
}

// CandlesByLimit returns the newest candles for a symbol
func (c *CSVFeed) CandlesByLimit(_ context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	candles, err := c.series(symbol, interval)
	if err != nil {
		return nil, err
	}
	if len(candles) < limit {
		return nil, fmt.Errorf("%w: have %d candles for %s %s, want %d",
			core.ErrInsufficientData, len(candles), symbol, interval, limit)
	}
	out := make([]core.Candle, limit)
	copy(out, candles[len(candles)-limit:])
	return out, nil
}

// CandlesByPeriod returns the candles for a symbol between start and end,
// inclusive
func (c *CSVFeed) CandlesByPeriod(_ context.Context, symbol, interval string, start, end time.Time) ([]core.Candle, error) {
	candles, err := c.series(symbol, interval)
	if err != nil {
		return nil, err
	}

	var out []core.Candle
	for _, candle := range candles {
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}
		out = append(out, candle)
	}
	return out, nil
}

func readCandleFile(f FeedFile) ([]core.Candle, error) {
	file, err := os.Open(f.File)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file", core.ErrInsufficientData)
	}

	// a non-numeric first cell means the file carries a header row
	if _, err := strconv.ParseInt(rows[0][0], 10, 64); err != nil {
		rows = rows[1:]
	}

	duration, err := ParseInterval(f.Timeframe)
	if err != nil {
		return nil, err
	}

	candles := make([]core.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, have %d", i, len(row))
		}

		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		candle := core.Candle{
			Symbol:   f.Symbol,
			Time:     time.Unix(ts, 0).UTC(),
			Complete: true,
		}
		candle.CloseTime = candle.Time.Add(duration)

		err = parseFloats(map[*float64]string{
			&candle.Open:   row[1],
			&candle.Close:  row[2],
			&candle.Low:    row[3],
			&candle.High:   row[4],
			&candle.Volume: row[5],
		})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// resample aggregates candles from a finer timeframe into a coarser one.
// Buckets are aligned to whole multiples of the target interval in UTC.
func resample(candles []core.Candle, from, to string) ([]core.Candle, error) {
	fromDuration, err := ParseInterval(from)
	if err != nil {
		return nil, err
	}
	toDuration, err := ParseInterval(to)
	if err != nil {
		return nil, err
	}
	if toDuration < fromDuration {
		return nil, fmt.Errorf("cannot resample %s data to finer timeframe %s", from, to)
	}

	var out []core.Candle
	for _, candle := range candles {
		bucket := candle.Time.Truncate(toDuration)

		if n := len(out); n > 0 && out[n-1].Time.Equal(bucket) {
			last := &out[n-1]
			last.Close = candle.Close
			last.Volume += candle.Volume
			if candle.High > last.High {
				last.High = candle.High
			}
			if candle.Low < last.Low {
				last.Low = candle.Low
			}
			continue
		}

		resampled := candle
		resampled.Time = bucket
		resampled.CloseTime = bucket.Add(toDuration)
		out = append(out, resampled)
	}

	return out, nil
}
