package core

import "errors"

var (
	ErrInvalidStopLoss   = errors.New("invalid stop loss")
	ErrInvalidTakeProfit = errors.New("invalid take profit")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrNegativeBalance   = errors.New("negative initial balance")
	ErrInsufficientData  = errors.New("insufficient data")
)
