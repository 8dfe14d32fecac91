/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/wind-gateway/internal/bootstrap"
	"github.com/spf13/cobra"
)

// marketDataGatewayCmd represents the marketDataGateway command
var marketDataGatewayCmd = &cobra.Command{
	Use:   "market-data-gateway",
	Short: "Real-time Wind quote gateway",
	Long: `Market Data Gateway keeps a Wind quote session open, subscribes every symbol
registered in quote_subscriptions and publishes each quote update to NATS JetStream.

Subscriptions are restored on every reconnect and new ones can be added through
POST /market-data/v1/subscriptions.`,
	Run: bootstrap.StartMarketDataGateway,
}

func init() {
	rootCmd.AddCommand(marketDataGatewayCmd)
}
