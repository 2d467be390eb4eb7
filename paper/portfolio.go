// Package paper implements the paper-trading engines: an account portfolio,
// a bar-by-bar backtest simulator, and a polling live trader. The engines are
// the only writers of portfolio state; everything else reads snapshots.
package paper

import (
	"sync"
	"time"

	"github.com/oraclelink/oraclelink/core"
)

// EquitySample is one point of the portfolio's equity curve
type EquitySample struct {
	Time  time.Time
	Value float64
}

// Snapshot is a read-only copy of portfolio state for reporting readers.
// It may lag the engine by one cycle.
type Snapshot struct {
	Balance        float64
	InitialBalance float64
	FeesPaid       float64
	Positions      []core.Position
	TradeRecords   []core.TradeRecord
	EquityCurve    []EquitySample
}

// Portfolio is the single source of truth for simulated account state:
// cash balance, pending order requests, open positions, closed-trade log
// and the equity curve. Balance changes only through fills and realized
// exits applied by an execution engine.
type Portfolio struct {
	mu sync.RWMutex

	balance        float64
	initialBalance float64
	feesPaid       float64

	pending   []core.OrderRequest
	positions []*core.Position
	records   []core.TradeRecord
	equity    []EquitySample
}

// NewPortfolio creates a portfolio with the given starting cash balance.
// A negative initial balance is a construction-time error; the balance is
// not re-validated afterwards (fees may push it below zero, which is a
// known modeling looseness of the fill rules).
func NewPortfolio(initialBalance float64) (*Portfolio, error) {
	if initialBalance < 0 {
		return nil, core.ErrNegativeBalance
	}
	return &Portfolio{
		balance:        initialBalance,
		initialBalance: initialBalance,
	}, nil
}

// Balance returns the current cash balance
func (p *Portfolio) Balance() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balance
}

// InitialBalance returns the balance the portfolio was constructed with
func (p *Portfolio) InitialBalance() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialBalance
}

// FeesPaid returns the cumulative fees charged on fills and exits
func (p *Portfolio) FeesPaid() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.feesPaid
}

// Equity is the total account value: cash plus unrealized PnL of all open
// positions marked at the given price
func (p *Portfolio) Equity(mark float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.equityLocked(mark)
}

func (p *Portfolio) equityLocked(mark float64) float64 {
	total := p.balance
	for _, pos := range p.positions {
		total += pos.UnrealizedPnL(mark)
	}
	return total
}

// Positions returns a copy of the open positions, oldest first
func (p *Portfolio) Positions() []core.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()

	positions := make([]core.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		positions = append(positions, *pos)
	}
	return positions
}

// TradeRecords returns a copy of the closed-trade log
func (p *Portfolio) TradeRecords() []core.TradeRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	records := make([]core.TradeRecord, len(p.records))
	copy(records, p.records)
	return records
}

// EquityCurve returns a copy of the recorded equity samples
func (p *Portfolio) EquityCurve() []EquitySample {
	p.mu.RLock()
	defer p.mu.RUnlock()

	curve := make([]EquitySample, len(p.equity))
	copy(curve, p.equity)
	return curve
}

// Snapshot returns a consistent read-only copy of the whole portfolio
func (p *Portfolio) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := Snapshot{
		Balance:        p.balance,
		InitialBalance: p.initialBalance,
		FeesPaid:       p.feesPaid,
		Positions:      make([]core.Position, 0, len(p.positions)),
		TradeRecords:   make([]core.TradeRecord, len(p.records)),
		EquityCurve:    make([]EquitySample, len(p.equity)),
	}
	for _, pos := range p.positions {
		snapshot.Positions = append(snapshot.Positions, *pos)
	}
	copy(snapshot.TradeRecords, p.records)
	copy(snapshot.EquityCurve, p.equity)
	return snapshot
}

// ---------------------
// Engine-side mutations
// ---------------------

func (p *Portfolio) credit(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance += amount
}

func (p *Portfolio) debit(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance -= amount
}

func (p *Portfolio) addFee(fee float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feesPaid += fee
}

func (p *Portfolio) addPending(req core.OrderRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, req)
}

// takePending removes and returns all queued order requests
func (p *Portfolio) takePending() []core.OrderRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := p.pending
	p.pending = nil
	return pending
}

func (p *Portfolio) addPosition(pos core.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions = append(p.positions, &pos)
}

// openPositions returns the live position handles for the engine's exit
// checks. Callers must be the owning engine.
func (p *Portfolio) openPositions() []*core.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()

	positions := make([]*core.Position, len(p.positions))
	copy(positions, p.positions)
	return positions
}

// closePosition closes up to quantity units of a position at the given
// price, emitting exactly one trade record. A partial close decrements the
// position quantity in place; a full close removes the position.
func (p *Portfolio) closePosition(id string, quantity, exitPrice float64, exitTime time.Time) (core.TradeRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, pos := range p.positions {
		if pos.ID != id {
			continue
		}

		closed := quantity
		if closed >= pos.Quantity {
			closed = pos.Quantity
			p.positions = append(p.positions[:i], p.positions[i+1:]...)
		} else {
			pos.Quantity -= closed
		}

		record := core.NewTradeRecord(*pos, closed, exitPrice, exitTime)
		p.records = append(p.records, record)
		return record, true
	}

	return core.TradeRecord{}, false
}

// closeFIFO closes positions matching symbol and side, oldest first, up to
// the requested quantity. A nil quantity closes everything on that side.
// Returns the emitted trade records and the unfilled remainder.
func (p *Portfolio) closeFIFO(symbol string, side core.Side, quantity *float64, exitPrice float64, exitTime time.Time) ([]core.TradeRecord, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := 0.0
	closeAll := quantity == nil
	if !closeAll {
		remaining = *quantity
	}

	var records []core.TradeRecord
	kept := p.positions[:0]

	for _, pos := range p.positions {
		if pos.Symbol != symbol || pos.Side != side || (!closeAll && remaining <= 0) {
			kept = append(kept, pos)
			continue
		}

		closed := pos.Quantity
		if !closeAll && remaining < pos.Quantity {
			closed = remaining
		}

		record := core.NewTradeRecord(*pos, closed, exitPrice, exitTime)
		p.records = append(p.records, record)
		records = append(records, record)

		if closed < pos.Quantity {
			pos.Quantity -= closed
			kept = append(kept, pos)
		}

		if !closeAll {
			remaining -= closed
		}
	}

	p.positions = kept
	if closeAll {
		remaining = 0
	}
	return records, remaining
}

// recordEquity appends one mark-to-market sample to the equity curve
func (p *Portfolio) recordEquity(t time.Time, mark float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.equity = append(p.equity, EquitySample{Time: t, Value: p.equityLocked(mark)})
}
