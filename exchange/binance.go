package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"

	"github.com/oraclelink/oraclelink/core"
)

const fetchAttempts = 3

// Binance is a spot market data feeder backed by the Binance REST API.
// Transient request failures are retried a bounded number of times with
// exponential backoff before surfacing as a FetchError.
type Binance struct {
	client *binance.Client
	log    core.Logger
}

// BinanceOption configures a Binance feeder
type BinanceOption func(*Binance)

// WithBinanceCredentials sets API credentials. Market data endpoints work
// without them.
func WithBinanceCredentials(key, secret string) BinanceOption {
	return func(b *Binance) {
		b.client = binance.NewClient(key, secret)
	}
}

// WithBinanceTestnet routes all requests to the spot testnet
func WithBinanceTestnet() BinanceOption {
	return func(*Binance) {
		binance.UseTestnet = true
	}
}

// WithBinanceLogger overrides the default logger
func WithBinanceLogger(log core.Logger) BinanceOption {
	return func(b *Binance) {
		b.log = log
	}
}

// NewBinance creates a Binance spot feeder
func NewBinance(opts ...BinanceOption) *Binance {
	b := &Binance{
		client: binance.NewClient("", ""),
		log:    core.DefaultLog,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func newBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 1 * time.Second,
	}
}

// retry runs fn up to fetchAttempts times, backing off between failures.
// Context cancellation stops the retries immediately.
func (b *Binance) retry(ctx context.Context, symbol, interval string, fn func() error) error {
	boff := newBackoff()

	var err error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == fetchAttempts-1 {
			break
		}

		wait := boff.Duration()
		b.log.Warnf("binance request for %s failed, retrying in %s: %v", symbol, wait, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return &FetchError{Symbol: symbol, Interval: interval, Err: err}
}

// LastQuote returns the most recent traded price for a symbol
func (b *Binance) LastQuote(ctx context.Context, symbol string) (float64, error) {
	var price float64

	err := b.retry(ctx, symbol, "", func() error {
		prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
		if err != nil {
			return err
		}
		if len(prices) == 0 {
			return fmt.Errorf("no price returned for %s", symbol)
		}
		return parseFloats(map[*float64]string{&price: prices[0].Price})
	})
	return price, err
}

// CandlesByLimit returns the most recent complete candles for a symbol. The
// still-forming candle is requested and dropped so callers only see closed
// bars plus, at most, the one bar still open on the exchange.
func (b *Binance) CandlesByLimit(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	var candles []core.Candle

	err := b.retry(ctx, symbol, interval, func() error {
		klines, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit + 1).
			Do(ctx)
		if err != nil {
			return err
		}

		candles = make([]core.Candle, 0, len(klines))
		for i, k := range klines {
			candle, err := candleFromKline(symbol, *k)
			if err != nil {
				return err
			}
			candle.Complete = i < len(klines)-1
			candles = append(candles, candle)
		}
		if len(candles) > limit {
			candles = candles[len(candles)-limit:]
		}
		return nil
	})
	return candles, err
}

// CandlesByPeriod returns the candles for a symbol between start and end
func (b *Binance) CandlesByPeriod(ctx context.Context, symbol, interval string, start, end time.Time) ([]core.Candle, error) {
	var candles []core.Candle

	err := b.retry(ctx, symbol, interval, func() error {
		klines, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(start.UnixMilli()).
			EndTime(end.UnixMilli()).
			Do(ctx)
		if err != nil {
			return err
		}

		candles = make([]core.Candle, 0, len(klines))
		for _, k := range klines {
			candle, err := candleFromKline(symbol, *k)
			if err != nil {
				return err
			}
			candle.Complete = true
			candles = append(candles, candle)
		}
		return nil
	})
	return candles, err
}

func candleFromKline(symbol string, k binance.Kline) (core.Candle, error) {
	candle := core.Candle{
		Symbol:    symbol,
		Time:      time.UnixMilli(k.OpenTime).UTC(),
		CloseTime: time.UnixMilli(k.CloseTime).UTC(),
	}

	err := parseFloats(map[*float64]string{
		&candle.Open:   k.Open,
		&candle.High:   k.High,
		&candle.Low:    k.Low,
		&candle.Close:  k.Close,
		&candle.Volume: k.Volume,
	})
	if err != nil {
		return core.Candle{}, err
	}
	return candle, nil
}

func parseFloats(fields map[*float64]string) error {
	for dst, raw := range fields {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", raw, err)
		}
		*dst = value
	}
	return nil
}
