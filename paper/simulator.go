package paper

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/oraclelink/oraclelink/core"
)

// Simulator replays a historical dataframe bar by bar against a strategy.
// Orders created on bar i fill at the open of bar i+1, so the strategy never
// acts on a price it could not have seen. The pending queue is cleared on
// every bar: limit requests not reached by the next open are dropped.
type Simulator struct {
	engine
}

// NewSimulator creates a backtest simulator writing into the given portfolio
func NewSimulator(portfolio *Portfolio, strategy core.Strategy, opts ...Option) *Simulator {
	sim := &Simulator{
		engine: engine{
			portfolio:    portfolio,
			strategy:     strategy,
			log:          core.DefaultLog,
			exitPriority: ExitTakeProfitPriority,
		},
	}
	for _, opt := range opts {
		opt(&sim.engine)
	}
	return sim
}

// Run replays the dataframe. Each bar i < n-1 is processed in a fixed order:
// the strategy is evaluated on the history up to and including bar i, the
// resulting request is queued, the queue fills at bar i+1's open, protective
// exits are checked against bar i's range, and equity is sampled at bar i's
// close. The last bar's range is exit-checked as well, then a final sample at
// its close leaves the equity curve with exactly n points.
func (s *Simulator) Run(df *core.Dataframe) error {
	n := df.Len()
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 candles, have %d", core.ErrInsufficientData, n)
	}

	var bar *progressbar.ProgressBar
	if s.showProgress {
		bar = progressbar.NewOptions(n-1,
			progressbar.OptionSetDescription(df.Symbol),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}

	for i := 0; i < n-1; i++ {
		history := df.Until(i + 1)
		current := df.Candle(i)
		next := df.Candle(i + 1)

		if history.Len() >= s.strategy.WarmupPeriod() {
			advice := s.strategy.Evaluate(history)
			if req := s.translate(advice, df.Symbol, current.Close, current.Time); req != nil {
				s.portfolio.addPending(*req)
			}
		}

		s.fillPending(next.Open, next.Time)
		s.checkExits(current)
		s.portfolio.recordEquity(current.Time, current.Close)

		if bar != nil {
			if err := bar.Add(1); err != nil {
				s.log.Warn("progress bar error: ", err)
			}
		}
	}

	last := df.Candle(n - 1)
	s.checkExits(last)
	s.portfolio.recordEquity(last.Time, last.Close)

	s.log.Infof("simulation finished: %d candles, %d trades, final balance %f",
		n, len(s.portfolio.TradeRecords()), s.portfolio.Balance())
	return nil
}
