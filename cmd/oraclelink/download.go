package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oraclelink/oraclelink"
	"github.com/oraclelink/oraclelink/exchange"
)

const dateLayout = "2006-01-02"

var (
	dlSymbol    string
	dlTimeframe string
	dlDays      int
	dlStart     string
	dlEnd       string
	dlOutput    string
)

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download historical candles to a CSV file",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&dlSymbol, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	downloadCmd.Flags().StringVarP(&dlTimeframe, "timeframe", "t", "15m", "Candle timeframe")
	downloadCmd.Flags().IntVarP(&dlDays, "days", "d", 30, "Number of days to download")
	downloadCmd.Flags().StringVarP(&dlStart, "start", "s", "", "Start date (e.g. 2025-01-01)")
	downloadCmd.Flags().StringVarP(&dlEnd, "end", "e", "", "End date (e.g. 2025-06-30)")
	downloadCmd.Flags().StringVarP(&dlOutput, "output", "o", "", "Output CSV file (required)")

	if err := downloadCmd.MarkFlagRequired("pair"); err != nil {
		panic(err)
	}
	if err := downloadCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}

	return downloadCmd
}

func downloadRange() (start, end time.Time, err error) {
	end = time.Now().UTC()
	start = end.AddDate(0, 0, -dlDays)

	if dlStart != "" {
		if start, err = time.Parse(dateLayout, dlStart); err != nil {
			return start, end, fmt.Errorf("parsing start date: %w", err)
		}
	}
	if dlEnd != "" {
		if end, err = time.Parse(dateLayout, dlEnd); err != nil {
			return start, end, fmt.Errorf("parsing end date: %w", err)
		}
	}

	if !start.Before(end) {
		return start, end, fmt.Errorf("start date must be before end date")
	}
	return start, end, nil
}

func runDownload(cmd *cobra.Command, _ []string) error {
	start, end, err := downloadRange()
	if err != nil {
		return err
	}

	feeder := exchange.NewBinance(exchange.WithBinanceLogger(oraclelink.DefaultLog))
	candles, err := feeder.CandlesByPeriod(cmd.Context(), dlSymbol, dlTimeframe, start, end)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles returned for %s %s", dlSymbol, dlTimeframe)
	}

	file, err := os.Create(dlOutput)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"time", "open", "close", "low", "high", "volume"}); err != nil {
		return err
	}

	for _, candle := range candles {
		if err := writer.Write(candle.ToSlice(-1)); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Saved %d candles to %s\n", len(candles), dlOutput)
	return nil
}
