package main

import (
	"fmt"
	"os"

	"github.com/soitgoes511/graph-network-visualizer/internal/config"
	"github.com/soitgoes511/graph-network-visualizer/internal/server"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger/console"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "graphnet-server",
		Short:         "Serve the graph network visualizer API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug: cfg.Debug,
				JSON:  cfg.JSONLogs,
			})
			logger.Init(consoleLogger)

			server.Init(cfg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $"+config.EnvConfigPath+")")
	return cmd
}
