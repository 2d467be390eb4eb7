package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oraclelink/oraclelink"
	"github.com/oraclelink/oraclelink/config"
	"github.com/oraclelink/oraclelink/core"
	"github.com/oraclelink/oraclelink/strategy"
)

var (
	runConfigFile   string
	runStrategyName string
)

func buildRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the live paper trading bot",
		RunE:  runBot,
	}

	runCmd.Flags().StringVarP(&runConfigFile, "config", "c", "oraclelink.yml", "Configuration file")
	runCmd.Flags().StringVarP(&runStrategyName, "strategy", "s", "shadow", "Strategy: shadow, swing, breakout or cross")

	return runCmd
}

func buildStrategy(name, timeframe string) (core.Strategy, error) {
	switch name {
	case "shadow":
		return strategy.NewShadowsTrendingTouch(timeframe), nil
	case "swing":
		return strategy.NewSwingTrend(timeframe, true, oraclelink.DefaultLog), nil
	case "breakout":
		return strategy.NewBreakout(timeframe, 4), nil
	case "cross":
		return strategy.NewCrossEMA(timeframe, 9, 21), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(runConfigFile)
	if err != nil {
		return err
	}

	strat, err := buildStrategy(runStrategyName, cfg.Trading.Timeframe)
	if err != nil {
		return err
	}

	bot, err := oraclelink.NewBot(cfg, strat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Println(bot.Summary())
	return nil
}
