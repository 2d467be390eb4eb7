package core

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Side represents the directional bias of a request or position
type Side string

// Action represents what a request does to a position
type Action string

// Order side constants
const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Order action constants
const (
	ActionOpen  Action = "OPEN"
	ActionClose Action = "CLOSE"
)

// Opposite returns the other side
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// OrderRequest is the intent to open or close a position. It is produced by
// the strategy-to-order translation step and consumed by the execution engine.
//
// Price is an optional limit entry price; when nil the request is filled at
// the engine's reference price. Quantity is optional; when nil the engine
// derives it from the account balance. StopLoss and TakeProfit are optional
// protection levels attached to the position the request spawns.
type OrderRequest struct {
	ID        string
	RootID    string
	Symbol    string
	CreatedAt time.Time

	Confidence float64
	Side       Side
	Action     Action

	Price      *float64
	Quantity   *float64
	StopLoss   *float64
	TakeProfit *float64
}

// NewOrderRequest creates an order request and validates protection levels
// against the limit entry price, when one is supplied. Requests without an
// entry price defer validation to position creation, where the fill price
// is known.
func NewOrderRequest(symbol string, side Side, action Action, confidence float64, createdAt time.Time) OrderRequest {
	id := ulid.Make().String()
	return OrderRequest{
		ID:         id,
		RootID:     id,
		Symbol:     symbol,
		Side:       side,
		Action:     action,
		Confidence: confidence,
		CreatedAt:  createdAt,
	}
}

// WithPrice sets a limit entry price
func (r OrderRequest) WithPrice(price float64) OrderRequest {
	r.Price = &price
	return r
}

// WithQuantity sets an explicit quantity in base units
func (r OrderRequest) WithQuantity(qty float64) OrderRequest {
	r.Quantity = &qty
	return r
}

// WithProtections attaches stop-loss and/or take-profit levels.
// Pass 0 to leave a level unset.
func (r OrderRequest) WithProtections(stopLoss, takeProfit float64) OrderRequest {
	if stopLoss > 0 {
		r.StopLoss = &stopLoss
	}
	if takeProfit > 0 {
		r.TakeProfit = &takeProfit
	}
	return r
}

// Validate checks the stop-loss/take-profit ordering invariant against the
// request's limit entry price. Requests without a limit price always pass.
func (r OrderRequest) Validate() error {
	if r.Price == nil {
		return nil
	}
	return ValidateProtections(r.Side, *r.Price, r.StopLoss, r.TakeProfit)
}

// IsBuy reports whether filling this request spends quote currency
// (opening a long or closing a short)
func (r OrderRequest) IsBuy() bool {
	return (r.Side == SideLong) == (r.Action == ActionOpen)
}

func (r OrderRequest) String() string {
	qty := "auto"
	if r.Quantity != nil {
		qty = fmt.Sprintf("%f", *r.Quantity)
	}
	return fmt.Sprintf("[%s %s] %s conf=%.2f qty=%s", r.Action, r.Side, r.Symbol, r.Confidence, qty)
}

// ValidateProtections enforces the side-of-entry invariant: a long entry
// requires stop-loss strictly below and take-profit strictly above the entry
// price; a short entry requires the symmetric ordering. Violations are
// construction-time errors and are never silently corrected.
func ValidateProtections(side Side, entry float64, stopLoss, takeProfit *float64) error {
	if side == SideLong {
		if stopLoss != nil && *stopLoss >= entry {
			return fmt.Errorf("%w: stop loss %f must be below entry %f for a long", ErrInvalidStopLoss, *stopLoss, entry)
		}
		if takeProfit != nil && *takeProfit <= entry {
			return fmt.Errorf("%w: take profit %f must be above entry %f for a long", ErrInvalidTakeProfit, *takeProfit, entry)
		}
		return nil
	}

	if stopLoss != nil && *stopLoss <= entry {
		return fmt.Errorf("%w: stop loss %f must be above entry %f for a short", ErrInvalidStopLoss, *stopLoss, entry)
	}
	if takeProfit != nil && *takeProfit >= entry {
		return fmt.Errorf("%w: take profit %f must be below entry %f for a short", ErrInvalidTakeProfit, *takeProfit, entry)
	}
	return nil
}
