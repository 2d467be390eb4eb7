package paper

import (
	"fmt"
	"math"
	"time"

	"github.com/oraclelink/oraclelink/core"
)

// ExitPriority decides which protection level wins when a single bar's range
// covers both the stop-loss and the take-profit of a position. Intrabar order
// of touches is unknowable from OHLC data, so the choice is a policy.
type ExitPriority string

const (
	// ExitTakeProfitPriority resolves a same-bar collision in favor of the
	// take-profit. This is the default.
	ExitTakeProfitPriority ExitPriority = "take_profit"

	// ExitStopLossPriority resolves a same-bar collision in favor of the
	// stop-loss
	ExitStopLossPriority ExitPriority = "stop_loss"

	// ExitWorstCase always resolves a collision against the position
	ExitWorstCase ExitPriority = "worst_case"
)

const (
	// confidence values within this band of zero are treated as neutral
	confidenceEpsilon = 1e-6

	// quantityDecimals is the precision quantities are floored to
	quantityDecimals = 1e6
)

func floorQuantity(qty float64) float64 {
	return math.Floor(qty*quantityDecimals) / quantityDecimals
}

// engine holds the execution rules shared by the backtest simulator and the
// live paper trader: confidence-to-order translation, fill pricing with
// slippage and fees, and protective exit checks. It is not safe for
// concurrent use; each owner drives it from a single goroutine.
type engine struct {
	portfolio *Portfolio
	strategy  core.Strategy
	log       core.Logger

	feeRate  float64
	slippage float64
	minSize  float64

	confidenceSizing bool
	exitPriority     ExitPriority

	// riskPerPosition enables stop-distance sizing when > 0: the quantity is
	// chosen so a stop-out loses exactly this fraction of the balance
	riskPerPosition float64
	leverage        float64

	// keepUnfilled retains limit requests whose price was not reached; when
	// false the whole pending queue is cleared on every fill pass
	keepUnfilled bool

	notifier core.Notifier

	// trader-only settings, ignored by the simulator
	window   int
	cooldown time.Duration

	// simulator-only setting
	showProgress bool
}

// Option configures an execution engine. All options apply to both the
// simulator and the live trader unless noted otherwise.
type Option func(*engine)

// WithFee sets the proportional fee rate charged on every fill's notional
func WithFee(rate float64) Option {
	return func(e *engine) {
		e.feeRate = rate
	}
}

// WithSlippage sets the proportional slippage applied against the order on
// market fills
func WithSlippage(rate float64) Option {
	return func(e *engine) {
		e.slippage = rate
	}
}

// WithMinSize sets the minimum order quantity; smaller derived quantities
// are dropped instead of filled
func WithMinSize(size float64) Option {
	return func(e *engine) {
		e.minSize = size
	}
}

// WithConfidenceSizing scales the budget of derived quantities by the
// advice's absolute confidence instead of spending the full balance
func WithConfidenceSizing() Option {
	return func(e *engine) {
		e.confidenceSizing = true
	}
}

// WithExitPriority sets the same-bar stop-loss/take-profit collision policy
func WithExitPriority(priority ExitPriority) Option {
	return func(e *engine) {
		e.exitPriority = priority
	}
}

// WithLogger overrides the default logger
func WithLogger(log core.Logger) Option {
	return func(e *engine) {
		e.log = log
	}
}

// WithNotifier forwards closed trades and engine errors to a notifier
func WithNotifier(notifier core.Notifier) Option {
	return func(e *engine) {
		e.notifier = notifier
	}
}

// WithRiskPerPosition enables stop-distance sizing: requests carrying a
// stop-loss are sized so a stop-out loses this fraction of the balance.
// Live trader only.
func WithRiskPerPosition(risk float64) Option {
	return func(e *engine) {
		e.riskPerPosition = risk
	}
}

// WithLeverage divides risk-sized quantities by the account leverage.
// Live trader only.
func WithLeverage(leverage float64) Option {
	return func(e *engine) {
		e.leverage = leverage
	}
}

// WithWindow sets how many bars of history the live trader keeps in memory
func WithWindow(size int) Option {
	return func(e *engine) {
		e.window = size
	}
}

// WithCooldown sets the live trader's polling interval
func WithCooldown(d time.Duration) Option {
	return func(e *engine) {
		e.cooldown = d
	}
}

// WithProgressBar renders a terminal progress bar while a simulation runs
func WithProgressBar() Option {
	return func(e *engine) {
		e.showProgress = true
	}
}

// adjustPrice applies slippage against the order: buys pay up, sells receive
// less
func (e *engine) adjustPrice(price float64, buy bool) float64 {
	if buy {
		return price * (1 + e.slippage)
	}
	return price * (1 - e.slippage)
}

// translate converts a strategy advice into an order request, or nil when the
// advice produces no action. Explicit requests pass through after validation;
// bare confidences become market opens sized from the account balance at the
// given reference price.
func (e *engine) translate(advice core.Advice, symbol string, refPrice float64, now time.Time) *core.OrderRequest {
	if advice.Request != nil {
		req := *advice.Request
		if req.Symbol == "" {
			req.Symbol = symbol
		}
		if req.CreatedAt.IsZero() {
			req.CreatedAt = now
		}
		if err := req.Validate(); err != nil {
			e.log.Error(fmt.Errorf("rejecting order request %s: %w", req.ID, err))
			return nil
		}
		if req.Quantity == nil {
			if qty, ok := e.deriveQuantity(req, refPrice); ok {
				req = req.WithQuantity(qty)
			} else if req.Action == core.ActionOpen {
				return nil
			}
		}
		return &req
	}

	if advice.Neutral() {
		return nil
	}

	side := core.SideLong
	if advice.Confidence < 0 {
		side = core.SideShort
	}

	req := core.NewOrderRequest(symbol, side, core.ActionOpen, advice.Confidence, now)
	qty, ok := e.deriveQuantity(req, refPrice)
	if !ok {
		return nil
	}
	req = req.WithQuantity(qty)
	return &req
}

// deriveQuantity sizes an open request from the balance. When a stop-loss is
// attached and risk sizing is enabled, the quantity caps the loss of a
// stop-out at riskPerPosition of the balance; otherwise the full budget,
// optionally scaled by confidence, is spent at the reference price.
// Quantities below the minimum order size are dropped.
func (e *engine) deriveQuantity(req core.OrderRequest, refPrice float64) (float64, bool) {
	if refPrice <= 0 {
		return 0, false
	}

	balance := e.portfolio.Balance()

	var qty float64
	if e.riskPerPosition > 0 && req.StopLoss != nil {
		distance := math.Abs(refPrice - *req.StopLoss)
		if distance <= 0 {
			return 0, false
		}
		leverage := e.leverage
		if leverage <= 0 {
			leverage = 1
		}
		qty = balance * e.riskPerPosition / (distance * leverage)
	} else {
		budget := balance
		if e.confidenceSizing {
			budget *= math.Abs(req.Confidence)
		}
		qty = budget / refPrice
	}

	qty = floorQuantity(qty)
	if qty <= 0 || qty < e.minSize {
		e.log.Debugf("dropping %s: quantity %f below minimum %f", req, qty, e.minSize)
		return 0, false
	}
	return qty, true
}

// fillPending executes every queued order request at the given reference
// price. Limit requests whose price was not reached are dropped or requeued
// depending on the keepUnfilled policy; execution failures are logged and
// drop the request.
func (e *engine) fillPending(refPrice float64, now time.Time) {
	pending := e.portfolio.takePending()
	for _, req := range pending {
		if req.Price != nil && !limitReached(req, refPrice) {
			if e.keepUnfilled {
				e.portfolio.addPending(req)
			} else {
				e.log.Debugf("dropping unfilled limit request %s at %f", req, refPrice)
			}
			continue
		}

		if err := e.execute(req, refPrice, now); err != nil {
			e.log.Error(fmt.Errorf("request %s not executed: %w", req.ID, err))
		}
	}
}

// limitReached reports whether the reference price satisfies the request's
// limit price: at or below for buys, at or above for sells
func limitReached(req core.OrderRequest, refPrice float64) bool {
	if req.IsBuy() {
		return refPrice <= *req.Price
	}
	return refPrice >= *req.Price
}

func (e *engine) execute(req core.OrderRequest, refPrice float64, now time.Time) error {
	if req.Action == core.ActionClose {
		return e.executeClose(req, refPrice, now)
	}
	return e.executeOpen(req, refPrice, now)
}

// executeOpen fills an open request at the slippage-adjusted reference price,
// charges the fee on the notional and registers the position. Buys that the
// balance cannot cover are clamped to the maximum affordable quantity.
func (e *engine) executeOpen(req core.OrderRequest, refPrice float64, now time.Time) error {
	price := e.adjustPrice(refPrice, req.IsBuy())

	if err := core.ValidateProtections(req.Side, price, req.StopLoss, req.TakeProfit); err != nil {
		return err
	}

	var qty float64
	if req.Quantity != nil {
		qty = *req.Quantity
	} else {
		derived, ok := e.deriveQuantity(req, price)
		if !ok {
			return fmt.Errorf("%w: cannot size request", core.ErrInvalidQuantity)
		}
		qty = derived
	}

	if req.IsBuy() {
		affordable := floorQuantity(e.portfolio.Balance() / (price * (1 + e.feeRate)))
		if qty > affordable {
			e.log.Warnf("clamping %s from %f to affordable %f", req, qty, affordable)
			qty = affordable
		}
	}

	if qty <= 0 || qty < e.minSize {
		return fmt.Errorf("%w: %f below minimum %f", core.ErrInvalidQuantity, qty, e.minSize)
	}

	pos, err := core.NewPosition(req, price, qty, now)
	if err != nil {
		return err
	}

	notional := price * qty
	fee := notional * e.feeRate
	if req.IsBuy() {
		e.portfolio.debit(notional + fee)
	} else {
		e.portfolio.credit(notional - fee)
	}
	e.portfolio.addFee(fee)
	e.portfolio.addPosition(pos)

	e.log.Infof("opened %s at %f (fee %f)", pos, price, fee)
	return nil
}

// executeClose closes positions matching the request's symbol and side,
// oldest first, at the slippage-adjusted reference price. A requested
// quantity larger than the total open quantity closes everything and logs
// the remainder.
func (e *engine) executeClose(req core.OrderRequest, refPrice float64, now time.Time) error {
	price := e.adjustPrice(refPrice, req.IsBuy())

	records, remainder := e.portfolio.closeFIFO(req.Symbol, req.Side, req.Quantity, price, now)
	if remainder > 0 {
		e.log.Warnf("close request %s left %f unfilled: no open quantity remains", req, remainder)
	}

	for _, record := range records {
		e.settle(record)
	}
	return nil
}

// settle applies the cash effect of a trade record: closing a long sells the
// quantity, closing a short buys it back. The fee is charged on the exit
// notional.
func (e *engine) settle(record core.TradeRecord) {
	notional := record.ExitPrice * record.Quantity
	fee := notional * e.feeRate
	if record.Side == core.SideLong {
		e.portfolio.credit(notional - fee)
	} else {
		e.portfolio.debit(notional + fee)
	}
	e.portfolio.addFee(fee)

	e.log.Infof("closed %s %s %f @ %f pnl=%f fee=%f",
		record.Side, record.Symbol, record.Quantity, record.ExitPrice, record.PnL, fee)

	if e.notifier != nil {
		e.notifier.OnTrade(record)
	}
}

// checkExits closes any open position whose stop-loss or take-profit level
// falls inside the bar's range. Protective exits fill at the trigger price
// exactly, without slippage.
func (e *engine) checkExits(bar core.Candle) {
	for _, pos := range e.portfolio.openPositions() {
		exitPrice, hit := resolveExit(*pos, bar, e.exitPriority)
		if !hit {
			continue
		}

		record, ok := e.portfolio.closePosition(pos.ID, pos.Quantity, exitPrice, bar.Time)
		if !ok {
			continue
		}
		e.settle(record)
	}
}

// resolveExit returns the protective exit price triggered by the bar, if any.
// A stop-loss triggers when its level is inside the bar's range. A take-profit
// triggers when the bar reaches it: the high for a long, range containment for
// a short. When both trigger on the same bar the configured priority decides.
func resolveExit(pos core.Position, bar core.Candle, priority ExitPriority) (float64, bool) {
	slHit := pos.StopLoss != nil && bar.Contains(*pos.StopLoss)

	tpHit := false
	if pos.TakeProfit != nil {
		if pos.Side == core.SideLong {
			tpHit = bar.High >= *pos.TakeProfit
		} else {
			tpHit = bar.Contains(*pos.TakeProfit)
		}
	}

	switch {
	case slHit && tpHit:
		if priority == ExitTakeProfitPriority {
			return *pos.TakeProfit, true
		}
		// stop-loss priority and worst case both take the adverse exit
		return *pos.StopLoss, true
	case slHit:
		return *pos.StopLoss, true
	case tpHit:
		return *pos.TakeProfit, true
	}
	return 0, false
}
