package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose  bool
	jsonOut  bool
	logger   *zap.Logger
	errFound = errors.New("item has errors")
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qtictl",
		Short: "Inspect, validate and exercise QTI assessment items",
		Long: `qtictl loads QTI 2.1 assessment items, reports validation
diagnostics, decomposes numeric strings and binds candidate responses
without a running server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print JSON instead of text")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newDecomposeCmd())
	root.AddCommand(newBindCmd())
	root.AddCommand(newPackCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errFound {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
