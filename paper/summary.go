package paper

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/oraclelink/oraclelink/core"
)

// Summary collects performance statistics over a closed-trade log
type Summary struct {
	Symbol  string
	records []core.TradeRecord
}

// NewSummary builds a summary for the records matching the symbol. An empty
// symbol keeps every record.
func NewSummary(symbol string, records []core.TradeRecord) Summary {
	if symbol != "" {
		records = lo.Filter(records, func(r core.TradeRecord, _ int) bool {
			return r.Symbol == symbol
		})
	}
	return Summary{Symbol: symbol, records: records}
}

// Records returns the trade records the summary was built over
func (s Summary) Records() []core.TradeRecord {
	return s.records
}

// Wins returns the trades with positive realized PnL
func (s Summary) Wins() []core.TradeRecord {
	return lo.Filter(s.records, func(r core.TradeRecord, _ int) bool {
		return r.PnL > 0
	})
}

// Losses returns the trades with zero or negative realized PnL
func (s Summary) Losses() []core.TradeRecord {
	return lo.Filter(s.records, func(r core.TradeRecord, _ int) bool {
		return r.PnL <= 0
	})
}

// Profit is the total realized PnL
func (s Summary) Profit() float64 {
	return lo.SumBy(s.records, func(r core.TradeRecord) float64 {
		return r.PnL
	})
}

// Volume is the total exit notional traded
func (s Summary) Volume() float64 {
	return lo.SumBy(s.records, func(r core.TradeRecord) float64 {
		return r.ExitPrice * r.Quantity
	})
}

// Returns lists every trade's fractional return on entry notional
func (s Summary) Returns() []float64 {
	return lo.Map(s.records, func(r core.TradeRecord, _ int) float64 {
		return r.Return()
	})
}

// WinRate is the percentage of trades with positive PnL
func (s Summary) WinRate() float64 {
	if len(s.records) == 0 {
		return 0
	}
	return float64(len(s.Wins())) / float64(len(s.records)) * 100
}

// Payoff is the ratio of the average winning return to the average losing
// return
func (s Summary) Payoff() float64 {
	wins := s.Wins()
	losses := s.Losses()
	if len(wins) == 0 || len(losses) == 0 {
		return 0
	}

	avgWin := lo.SumBy(wins, returnOf) / float64(len(wins))
	avgLoss := lo.SumBy(losses, returnOf) / float64(len(losses))
	if avgLoss == 0 {
		return 0
	}
	return avgWin / math.Abs(avgLoss)
}

// ProfitFactor is the ratio of gross winning returns to gross losing returns
func (s Summary) ProfitFactor() float64 {
	grossWin := lo.SumBy(s.Wins(), returnOf)
	grossLoss := lo.SumBy(s.Losses(), returnOf)
	if grossLoss == 0 {
		return 0
	}
	return grossWin / math.Abs(grossLoss)
}

// SQN is the system quality number: sqrt(n) * mean(PnL) / stddev(PnL)
func (s Summary) SQN() float64 {
	n := float64(len(s.records))
	if n == 0 {
		return 0
	}

	mean := s.Profit() / n
	variance := lo.SumBy(s.records, func(r core.TradeRecord) float64 {
		return (r.PnL - mean) * (r.PnL - mean)
	}) / n

	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}
	return math.Sqrt(n) * mean / stdDev
}

func returnOf(r core.TradeRecord) float64 {
	return r.Return()
}

// String formats the summary as a text table
func (s Summary) String() string {
	builder := &strings.Builder{}
	table := tablewriter.NewWriter(builder)

	data := [][]string{
		{"Symbol", s.Symbol},
		{"Trades", strconv.Itoa(len(s.records))},
		{"Win", strconv.Itoa(len(s.Wins()))},
		{"Loss", strconv.Itoa(len(s.Losses()))},
		{"% Win", fmt.Sprintf("%.1f", s.WinRate())},
		{"Payoff", fmt.Sprintf("%.2f", s.Payoff())},
		{"Pr.Fact", fmt.Sprintf("%.2f", s.ProfitFactor())},
		{"SQN", fmt.Sprintf("%.2f", s.SQN())},
		{"Profit", fmt.Sprintf("%.4f", s.Profit())},
		{"Volume", fmt.Sprintf("%.4f", s.Volume())},
	}

	table.AppendBulk(data)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()

	return builder.String()
}

// PrintReturnsHistogram renders a per-trade return distribution, in percent
func (s Summary) PrintReturnsHistogram(w io.Writer) error {
	returns := lo.Map(s.Returns(), func(v float64, _ int) float64 {
		return v * 100
	})
	if len(returns) == 0 {
		return nil
	}

	hist := histogram.Hist(15, returns)
	return histogram.Fprint(w, hist, histogram.Linear(10))
}

// SaveReturns writes one fractional return per line to the given file
func (s Summary) SaveReturns(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, value := range s.Returns() {
		if _, err := fmt.Fprintf(file, "%.4f\n", value); err != nil {
			return err
		}
	}
	return nil
}
