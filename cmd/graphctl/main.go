// Command graphctl builds and explores graph snapshots offline, without
// the API server or an annotation service.
package main

import (
	"fmt"
	"os"

	"github.com/soitgoes511/graph-network-visualizer/internal/config"
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

type globalFlags struct {
	configPath string
	debug      bool
}

// load returns the file config when one is given, the defaults otherwise.
// Environment overrides are not applied offline.
func (f *globalFlags) load() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configPath != "" {
		loaded, err := config.LoadFromFile(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Analytics.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "graphctl",
		Short:         "Build and explore graph network snapshots offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  flags.debug,
				Writer: cmd.ErrOrStderr(),
			}))
		},
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(buildCmd(flags), viewCmd(flags), pathCmd(), mergeCmd(flags))
	return cmd
}
