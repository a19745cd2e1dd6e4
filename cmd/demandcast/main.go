// Command demandcast fits daily demand forecasts from parquet tables and prints predictions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	profileDir string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "demandcast",
		Short:         "Daily demand forecasting with prediction intervals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&profileDir, "profile", "", "Write a cpu profile to this directory")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(featuresCmd())
	return rootCmd
}
