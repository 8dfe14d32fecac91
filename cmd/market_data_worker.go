/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/wind-gateway/internal/bootstrap"
	"github.com/spf13/cobra"
)

// marketDataWorkerCmd represents the marketDataWorker command
var marketDataWorkerCmd = &cobra.Command{
	Use:   "market-data-worker",
	Short: "Consume quotes from market-data-gateway",
	Long: `Consumes quotes published by market-data-gateway and keeps the latest
snapshot of every symbol in Redis.`,
	Run: bootstrap.StartMarketDataWorker,
}

func init() {
	rootCmd.AddCommand(marketDataWorkerCmd)
}
