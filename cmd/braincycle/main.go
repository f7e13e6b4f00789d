// Command braincycle runs the brain cycle analysis pipeline: it loads
// connectome graphs, standardizes them, detects recurrent cycles and
// hub regions, and renders figures.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/neurolab/braincycle-go/pipeline"
)

// configPathEnv overrides the default config path when the --config
// flag is not given.
const configPathEnv = "BRAINCYCLE_CONFIG"

var (
	// Global flags
	configPath string
	dataDir    string
	storeName  string
	verbose    bool
	jsonLogs   bool

	// Loaded configuration, available to every subcommand
	cfg pipeline.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "braincycle",
	Short: "Brain cycle analysis pipeline",
	Long: `braincycle analyzes directed brain-region networks (connectomes).

The standard pipeline has three stages, run in order:

  process    standardize raw GraphML files into the results directory
  analyze    detect bounded recurrent cycles and hub regions
  visualize  render network diagrams and a cycle length histogram

A stage failure halts the pipeline so later stages never consume bad
inputs. Each stage is also available as its own subcommand for rerunning
part of the pipeline against existing results.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if !cmd.Flags().Changed("config") {
			if env := os.Getenv(configPathEnv); env != "" {
				path = env
			}
		}

		var err error
		cfg, err = pipeline.LoadConfig(path)
		if err != nil {
			return err
		}

		// Flag overrides win over the config file.
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if storeName != "" {
			cfg.Store = storeName
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if !jsonLogs {
			zcfg = zap.NewDevelopmentConfig()
		}
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
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

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "braincycle.yaml", "pipeline config file (or set BRAINCYCLE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the raw data directory")
	rootCmd.PersistentFlags().StringVar(&storeName, "store", "", "override the step store backend: memory, sqlite or mysql")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
