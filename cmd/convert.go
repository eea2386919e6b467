// =============================================================================
// Excel to TXT Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, the main command of the tool.
//
// COMMAND USAGE:
//   exceltxt convert [flags]
//
// FLAGS:
//   --file       : Convert one file (a path, or a name inside input_dir)
//   --all        : Convert every file in input_dir
//   --overwrite  : Replace existing outputs instead of skipping them
//   --password   : Password for protected workbooks
//   --dry-run    : Run the pipeline without writing outputs
//
// Without --file or --all, a numbered menu of the files in input_dir is shown
// (interactive terminals only).
//
// PROCESSING PIPELINE:
//   1. Ensure input_dir and output_dir exist
//   2. Select the files to convert
//   3. Convert them concurrently (bounded by max_concurrency)
//   4. Print a summary
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/excel-to-txt/internal/converter"
	"github.com/ginjaninja78/excel-to-txt/internal/logger"
	"github.com/ginjaninja78/excel-to-txt/internal/prompt"
	"github.com/ginjaninja78/excel-to-txt/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	convertFile      string
	convertAll       bool
	convertOverwrite bool
	convertPassword  string
	convertDryRun    bool
)

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert spreadsheets to fixed-width TXT",
	Long: `The convert command reads spreadsheets from the input directory and writes one
fixed-width TXT file per input into the output directory.

Existing outputs are never replaced unless --overwrite is given. In batch mode
a failing file does not stop the others; the summary lists every failure.`,

	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertFile, "file", "f", "", "Convert a single file (path or name inside input_dir)")
	convertCmd.Flags().BoolVar(&convertAll, "all", false, "Convert every file in input_dir")
	convertCmd.Flags().BoolVar(&convertOverwrite, "overwrite", false, "Replace existing output files")
	convertCmd.Flags().StringVar(&convertPassword, "password", "", "Password for protected workbooks (or set EXCELTXT_PASSWORD)")
	convertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "Run the conversion without writing output files")

	convertCmd.MarkFlagsMutuallyExclusive("file", "all")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runConvert(cmd *cobra.Command) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	out := cmd.OutOrStdout()

	if convertOverwrite {
		mainConfig.Overwrite = true
	}

	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: SELECT FILES
	// =========================================================================

	interactive := prompt.Interactive()
	var prompter *prompt.Prompter
	if interactive {
		prompter = prompt.NewTerminal()
	}

	var files []string
	switch {
	case convertFile != "":
		path, err := resolveInput(convertFile)
		if err != nil {
			return err
		}
		files = []string{path}

	default:
		discovered, err := fm.DiscoverInputFiles()
		if err != nil {
			return err
		}
		if len(discovered) == 0 {
			fmt.Fprintf(out, "No .xls, .xlsx or .csv files found in %s\n", mainConfig.InputDir)
			return nil
		}

		if convertAll {
			files = discovered
			break
		}
		if !interactive {
			return fmt.Errorf("no file selected: use --file or --all when not running in a terminal")
		}

		files, err = prompter.SelectFiles(discovered)
		if errors.Is(err, prompt.ErrCancelled) {
			fmt.Fprintln(out, "Nothing selected.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: CONVERT
	// =========================================================================

	options := converter.Options{
		Password: convertPassword,
		DryRun:   convertDryRun,
	}
	if interactive {
		options.Prompt = prompter.Password
	}

	log.Debug().Int("files", len(files)).Bool("dry_run", convertDryRun).Msg("converting")

	results, summary := converter.RunBatch(ctx, files, mainConfig, options)

	// =========================================================================
	// STEP 3: SUMMARY
	// =========================================================================

	for _, r := range results {
		name := filepath.Base(r.FilePath)
		switch {
		case !r.Success:
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.Error)
		case r.Skipped:
			fmt.Fprintf(out, "  ⏭ %s: %s exists (use --overwrite)\n", name, r.OutputFile)
		default:
			fmt.Fprintf(out, "  ✓ %s -> %s (%d lines)\n", name, r.OutputFile, r.Stats.LinesWritten)
		}
		for _, m := range r.Mismatches {
			fmt.Fprintf(out, "    ⚠ %s\n", m)
		}
	}

	if len(files) > 1 {
		fmt.Fprintln(out)
		if err := utils.WriteSummary(out, summary); err != nil {
			return err
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// resolveInput accepts a path as given, or a bare name inside input_dir.
func resolveInput(name string) (string, error) {
	if utils.FileExists(name) {
		return name, nil
	}

	candidate := filepath.Join(mainConfig.InputDir, name)
	if utils.FileExists(candidate) {
		return candidate, nil
	}

	return "", fmt.Errorf("input file not found: %s", name)
}
