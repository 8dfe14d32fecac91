/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/wind-gateway/internal/bootstrap"
	"github.com/spf13/cobra"
)

// datafeedGatewayCmd represents the datafeedGateway command
var datafeedGatewayCmd = &cobra.Command{
	Use:   "datafeed-gateway",
	Short: "Historical bar and tick query service",
	Long:  `Serves Wind bar and tick history over HTTP (/datafeed/v1/bars, /datafeed/v1/ticks) and gRPC.`,
	Run:   bootstrap.StartDatafeedGateway,
}

func init() {
	rootCmd.AddCommand(datafeedGatewayCmd)
}
