package core

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// TradeRecord is the immutable receipt of a full or partial position close.
// It is created exactly once per close, appended to the portfolio's trade
// log, and never mutated or removed.
type TradeRecord struct {
	ID     string    `json:"id" gorm:"primaryKey"`
	RootID string    `json:"root_id"`
	Symbol string    `json:"symbol"`
	Side   Side      `json:"side"`

	Confidence float64 `json:"confidence"`

	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`

	PnL float64 `json:"pnl"`

	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
}

// NewTradeRecord derives a trade record from a position and an exit fill.
// quantity may be less than the position's quantity for a partial close.
// PnL is (exit-entry)*qty for longs and (entry-exit)*qty for shorts.
func NewTradeRecord(pos Position, quantity, exitPrice float64, exitTime time.Time) TradeRecord {
	pnl := (exitPrice - pos.EntryPrice) * quantity
	if pos.Side == SideShort {
		pnl = (pos.EntryPrice - exitPrice) * quantity
	}

	// A fresh id per record: a position partially closed twice yields two
	// distinct receipts, both traceable through RootID.
	return TradeRecord{
		ID:         ulid.Make().String(),
		RootID:     pos.RootID,
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		Confidence: pos.Confidence,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   quantity,
		EntryTime:  pos.EntryTime.UTC(),
		ExitTime:   exitTime.UTC(),
		PnL:        pnl,
		StopLoss:   pos.StopLoss,
		TakeProfit: pos.TakeProfit,
	}
}

// Return is the trade's profit relative to its entry notional
func (t TradeRecord) Return() float64 {
	notional := t.EntryPrice * t.Quantity
	if notional == 0 {
		return 0
	}
	return t.PnL / notional
}

func (t TradeRecord) String() string {
	return fmt.Sprintf("[%s] %s %f: %f -> %f PnL %f", t.Side, t.Symbol, t.Quantity, t.EntryPrice, t.ExitPrice, t.PnL)
}
