// Command carpool runs the company-registry pipeline: filter the registry
// to a geographic area, enrich the matches with contact details, render
// HTML reports and sync the result into a shared spreadsheet.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	dataDir string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "carpool",
	Short: "Company prospecting pipeline for carpool sales",
	Long: `carpool finds companies inside a geographic area, enriches them with
contact details from the national registry, and keeps a shared
spreadsheet up to date for the sales team.

Typical flow:
  carpool download
  carpool filter area.geojson
  carpool enrich output/area/bedrifter_raa.csv
  carpool sheets sync output/area/bedrifter.csv`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "directory holding registry snapshots and caches")

	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(sheetsCmd)
	rootCmd.AddCommand(downloadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
