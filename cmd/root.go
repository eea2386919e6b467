// =============================================================================
// Excel to TXT Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI.
//
// COBRA CLI STRUCTURE:
//   rootCmd (exceltxt)
//   ├── convertCmd (exceltxt convert)
//   ├── inspectCmd (exceltxt inspect)
//   └── versionCmd (exceltxt version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading config.yaml, .env and EXCELTXT_* variables
//   3. Setting up logging and storing the logger in the command context
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ginjaninja78/excel-to-txt/internal/config"
	"github.com/ginjaninja78/excel-to-txt/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig is loaded before any subcommand runs.
var mainConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "exceltxt",
	Short: "Excel to TXT Converter - Turn bank statement spreadsheets into fixed-width TXT",

	Long: `Excel to TXT Converter reads bank statement extracts (.xlsx, .xls, .csv),
finds the date column and the pair of amount columns on its own, and writes
1000-character fixed-width lines for the downstream interchange system.

Key Features:
  - Column roles detected from the data, never from header labels
  - Dates as YYYYMMDD, amounts in centavos
  - Trailing totals rows removed automatically
  - Password-protected workbooks
  - Concurrent batch conversion

Example Usage:
  exceltxt convert                         # Pick a file from entradas/
  exceltxt convert --all                   # Convert every file in entradas/
  exceltxt convert --file extrato.xlsx     # Convert a single file
  exceltxt inspect entradas/extrato.xlsx   # Show the detected layout`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		mainConfig = cfg

		log := logger.New(cfg.LogLevel)
		if verbose {
			log = log.Level(zerolog.DebugLevel)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.WithContext(ctx, log))

		log.Debug().Str("config", cfgFile).Str("input_dir", cfg.InputDir).Str("output_dir", cfg.OutputDir).Msg("configuration loaded")
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
