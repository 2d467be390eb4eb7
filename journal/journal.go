// Package journal persists closed-trade records so performance history
// survives restarts. Two backends are provided: an embedded BuntDB store
// and a SQL store for anything GORM can dial.
package journal

import (
	"context"

	"github.com/oraclelink/oraclelink/core"
)

// Filter selects trade records during retrieval
type Filter func(core.TradeRecord) bool

// Journal stores trade records and lists them ordered by exit time
type Journal interface {
	Save(ctx context.Context, record core.TradeRecord) error
	Records(ctx context.Context, filters ...Filter) ([]core.TradeRecord, error)
	Close() error
}

// WithSymbol keeps records for one symbol
func WithSymbol(symbol string) Filter {
	return func(r core.TradeRecord) bool {
		return r.Symbol == symbol
	}
}

// WithSide keeps records for one position side
func WithSide(side core.Side) Filter {
	return func(r core.TradeRecord) bool {
		return r.Side == side
	}
}

// Profitable keeps records with positive realized PnL
func Profitable() Filter {
	return func(r core.TradeRecord) bool {
		return r.PnL > 0
	}
}

func matches(record core.TradeRecord, filters []Filter) bool {
	for _, filter := range filters {
		if !filter(record) {
			return false
		}
	}
	return true
}
