package core

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Position is a live holding owned by the portfolio's open-position set.
// Quantity is mutable and may be reduced by partial closes; every other
// field is fixed at creation. RootID traces back to the originating
// order request.
type Position struct {
	ID     string
	RootID string
	Symbol string
	Side   Side

	EntryPrice float64
	Quantity   float64
	EntryTime  time.Time
	Confidence float64

	StopLoss   *float64
	TakeProfit *float64
}

// NewPosition creates a position from a filled order request. The stop-loss
// and take-profit ordering invariant is checked here, once, against the
// actual fill price.
func NewPosition(req OrderRequest, fillPrice, quantity float64, fillTime time.Time) (Position, error) {
	if quantity <= 0 {
		return Position{}, fmt.Errorf("%w: %f", ErrInvalidQuantity, quantity)
	}

	if err := ValidateProtections(req.Side, fillPrice, req.StopLoss, req.TakeProfit); err != nil {
		return Position{}, err
	}

	return Position{
		ID:         ulid.Make().String(),
		RootID:     req.RootID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		EntryPrice: fillPrice,
		Quantity:   quantity,
		EntryTime:  fillTime,
		Confidence: req.Confidence,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
	}, nil
}

// UnrealizedPnL returns the signed profit of the open quantity marked at
// the given price
func (p Position) UnrealizedPnL(mark float64) float64 {
	if p.Side == SideLong {
		return (mark - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - mark) * p.Quantity
}

func (p Position) String() string {
	return fmt.Sprintf("[%s] %s %f @ %f", p.Side, p.Symbol, p.Quantity, p.EntryPrice)
}
