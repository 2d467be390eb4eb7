package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "oraclelink",
		Short:   "Crypto trading assistant with paper trading and backtesting",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildBacktestCmd(),
		buildDownloadCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
