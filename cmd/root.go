/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"io"
	"os"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/infrastructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logCloser  io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wind-gateway",
	Short: "Wind terminal market data gateway",
	Long: `Wind Gateway adapts the Wind financial terminal to the platform market data model.

It serves historical bars and ticks over HTTP and gRPC, streams real-time quotes
to NATS JetStream, caches the latest quote per symbol in Redis and downloads
bar history into Postgres.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		logCloser, err = infrastructure.SetupLogger(config.Env.Env, config.Env.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser == nil {
			return
		}
		if err := logCloser.Close(); err != nil {
			logrus.Error(err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ./config.yml)")
}
