/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/wind-gateway/internal/bootstrap"
	"github.com/spf13/cobra"
)

// downloadHistoryCmd represents the downloadHistory command
var downloadHistoryCmd = &cobra.Command{
	Use:   "download-history",
	Short: "Download bar history into postgres",
	Long: `Queries Wind bar history for one symbol and upserts it into market_bars.

Example:
  wind-gateway download-history --symbol IF2401 --exchange CFFEX --interval 1m --start 2024-01-02 --end 2024-01-05`,
	Run: bootstrap.StartDownloadHistory,
}

func init() {
	rootCmd.AddCommand(downloadHistoryCmd)
	downloadHistoryCmd.Flags().String("symbol", "", "symbol without exchange suffix, e.g. 600000")
	downloadHistoryCmd.Flags().String("exchange", "", "exchange SSE|SZSE|CFFEX|SHFE|CZCE|DCE|INE|GFEX")
	downloadHistoryCmd.Flags().String("interval", "d", "interval 1m|1h|d")
	downloadHistoryCmd.Flags().String("start", "", "start date (2006-01-02) or RFC3339 time")
	downloadHistoryCmd.Flags().String("end", "", "end date (2006-01-02) or RFC3339 time, defaults to now")
	downloadHistoryCmd.Flags().Bool("incremental", false, "start from the latest stored bar when it is newer than --start")
}
