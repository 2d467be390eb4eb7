package paper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oraclelink/oraclelink/core"
)

const (
	defaultWindow   = 200
	defaultCooldown = time.Minute
)

// Trader runs a strategy against live market data on a paper account. One
// goroutine owns the whole cycle: refresh the candle window, evaluate the
// strategy, fill pending requests at the latest close, and check protective
// exits. Cycles never overlap; a slow cycle delays the next tick.
//
// Unlike the simulator, limit requests that the current price does not
// satisfy stay pending across cycles.
type Trader struct {
	engine
	feeder core.Feeder
	symbol string
	df     *core.Dataframe
}

// NewTrader creates a live paper trader for one symbol
func NewTrader(portfolio *Portfolio, strategy core.Strategy, feeder core.Feeder, symbol string, opts ...Option) *Trader {
	trader := &Trader{
		engine: engine{
			portfolio:    portfolio,
			strategy:     strategy,
			log:          core.DefaultLog,
			exitPriority: ExitTakeProfitPriority,
			keepUnfilled: true,
			window:       defaultWindow,
			cooldown:     defaultCooldown,
		},
		feeder: feeder,
		symbol: symbol,
	}
	for _, opt := range opts {
		opt(&trader.engine)
	}
	return trader
}

// Run starts the polling loop and blocks until the context is canceled or an
// unrecoverable error occurs. Failing to load the initial candle window is
// fatal; a data error during a cycle is reported and skips that cycle only.
func (t *Trader) Run(ctx context.Context) error {
	candles, err := t.feeder.CandlesByLimit(ctx, t.symbol, t.strategy.Timeframe(), t.window)
	if err != nil {
		return fmt.Errorf("loading initial window for %s: %w", t.symbol, err)
	}
	t.df = core.NewDataframe(t.symbol, candles)

	t.log.Infof("paper trading %s on %s: window=%d cooldown=%s",
		t.symbol, t.strategy.Timeframe(), t.window, t.cooldown)

	ticker := time.NewTicker(t.cooldown)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := t.cycle(ctx); err != nil {
				t.reportError(err)
				return err
			}
		}
	}
}

// cycle runs one evaluation pass. Data refresh failures are reported and end
// the cycle without an error; anything else bubbles up and stops the trader.
func (t *Trader) cycle(ctx context.Context) error {
	latest, err := t.feeder.CandlesByLimit(ctx, t.symbol, t.strategy.Timeframe(), 1)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		t.reportError(fmt.Errorf("refreshing %s: %w", t.symbol, err))
		return nil
	}
	if len(latest) == 0 {
		t.reportError(fmt.Errorf("refreshing %s: empty candle response", t.symbol))
		return nil
	}

	candle := latest[0]
	before := t.df.Len()
	newBar := before > 0 && !candle.Time.Equal(t.df.Time[before-1])

	var closedTime time.Time
	var closedPrice float64
	if newBar {
		closedTime = t.df.Time[before-1]
		closedPrice = t.df.Close.Last(0)
	}

	t.df.Update(candle)
	if t.df.Len() > t.window {
		t.df.Shift()
	}

	now := time.Now().UTC()
	price := t.df.Close.Last(0)

	if t.df.Len() >= t.strategy.WarmupPeriod() {
		advice := t.strategy.Evaluate(t.df)
		if req := t.translate(advice, t.symbol, price, now); req != nil {
			t.portfolio.addPending(*req)
		}
	}

	t.fillPending(price, now)
	t.checkExits(candle)

	// one equity sample per completed bar, marked at that bar's close, keeps
	// the live curve aligned with backtest curves
	if newBar {
		t.portfolio.recordEquity(closedTime, closedPrice)
	}
	return nil
}

func (t *Trader) reportError(err error) {
	t.log.Error(err)
	if t.notifier != nil {
		t.notifier.OnError(err)
	}
}
