package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oraclelink/oraclelink"
	"github.com/oraclelink/oraclelink/core"
	"github.com/oraclelink/oraclelink/exchange"
	"github.com/oraclelink/oraclelink/paper"
)

var (
	btFile      string
	btSymbol    string
	btTimeframe string
	btStrategy  string
	btBalance   float64
	btFee       float64
	btSlippage  float64
	btSizing    bool
	btReturns   string
)

func buildBacktestCmd() *cobra.Command {
	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a strategy over historical CSV data",
		RunE:  runBacktest,
	}

	backtestCmd.Flags().StringVarP(&btFile, "file", "f", "", "CSV candle file (required)")
	backtestCmd.Flags().StringVarP(&btSymbol, "pair", "p", "BTCUSDT", "Trading pair")
	backtestCmd.Flags().StringVarP(&btTimeframe, "timeframe", "t", "15m", "Candle timeframe")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "shadow", "Strategy: shadow, swing, breakout or cross")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 10000, "Initial balance")
	backtestCmd.Flags().Float64Var(&btFee, "fee", 0.001, "Proportional fee rate")
	backtestCmd.Flags().Float64Var(&btSlippage, "slippage", 0, "Proportional slippage")
	backtestCmd.Flags().BoolVar(&btSizing, "confidence-sizing", false, "Scale position size by confidence")
	backtestCmd.Flags().StringVar(&btReturns, "save-returns", "", "Write per-trade returns to this file")

	if err := backtestCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	return backtestCmd
}

func runBacktest(_ *cobra.Command, _ []string) error {
	feed, err := exchange.NewCSVFeed(btTimeframe, exchange.FeedFile{
		Symbol:    btSymbol,
		File:      btFile,
		Timeframe: btTimeframe,
	})
	if err != nil {
		return err
	}

	candles, err := feed.CandlesByPeriod(context.Background(), btSymbol, btTimeframe,
		time.Unix(0, 0), time.Now())
	if err != nil {
		return err
	}

	portfolio, err := paper.NewPortfolio(btBalance)
	if err != nil {
		return err
	}

	strat, err := buildStrategy(btStrategy, btTimeframe)
	if err != nil {
		return err
	}

	opts := []paper.Option{
		paper.WithLogger(oraclelink.DefaultLog),
		paper.WithFee(btFee),
		paper.WithSlippage(btSlippage),
		paper.WithProgressBar(),
	}
	if btSizing {
		opts = append(opts, paper.WithConfidenceSizing())
	}

	sim := paper.NewSimulator(portfolio, strat, opts...)
	if err := sim.Run(core.NewDataframe(btSymbol, candles)); err != nil {
		return err
	}

	summary := paper.NewSummary(btSymbol, portfolio.TradeRecords())
	fmt.Println(summary)
	fmt.Printf("Initial balance: %.4f\nFinal balance:   %.4f\nFees paid:       %.4f\n",
		portfolio.InitialBalance(), portfolio.Balance(), portfolio.FeesPaid())

	if err := summary.PrintReturnsHistogram(os.Stdout); err != nil {
		return err
	}

	if btReturns != "" {
		if err := summary.SaveReturns(btReturns); err != nil {
			return err
		}
	}
	return nil
}
