// =============================================================================
// Excel to TXT Converter - Converter Module
// =============================================================================
//
// This module orchestrates the conversion pipeline for a single file, from
// spreadsheet reading to the fixed-width TXT output.
//
// CONVERSION PIPELINE:
//   1. Skip the file if its output exists and overwriting is off
//   2. Read the input into a Grid (xlsx/xls/csv)
//   3. Detect column roles and normalize to canonical rows
//   4. Sort by date, blank dates last
//   5. Strip a trailing totals row
//   6. Validate the canonical rows
//   7. Serialize fixed-width lines (sequence assigned after stripping)
//   8. Write the output file, CRLF-joined
//
// Steps 3 to 7 are Convert, which does no I/O and can be used on any
// types.Table.
//
// CONCURRENCY:
//   A Converter owns its input and output paths. Several converters can run
//   at once; see RunBatch.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/excel-to-txt/internal/config"
	"github.com/ginjaninja78/excel-to-txt/internal/csvparser"
	"github.com/ginjaninja78/excel-to-txt/internal/detector"
	"github.com/ginjaninja78/excel-to-txt/internal/fixedwidth"
	"github.com/ginjaninja78/excel-to-txt/internal/footer"
	"github.com/ginjaninja78/excel-to-txt/internal/logger"
	"github.com/ginjaninja78/excel-to-txt/internal/normalizer"
	"github.com/ginjaninja78/excel-to-txt/internal/types"
	"github.com/ginjaninja78/excel-to-txt/internal/validation"
	"github.com/ginjaninja78/excel-to-txt/internal/xlsxparser"
	"github.com/ginjaninja78/excel-to-txt/pkg/utils"
	"github.com/rs/zerolog"
)

// ErrValidationFailed is returned when validation finds errors and
// continue_on_error is off.
var ErrValidationFailed = errors.New("validation failed")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the input file.
	FilePath string

	// OutputFile is the TXT path. Set for skipped and dry-run files too.
	OutputFile string

	// Success is true when the file was converted or skipped.
	Success bool

	// Skipped is true when the output already existed.
	Skipped bool

	// Error is set when processing failed.
	Error error

	// Detection is the column layout that was used.
	Detection detector.Detection

	// Validation holds the validation findings.
	Validation *validation.ValidationResult

	// Mismatches lists lines whose width is not the layout width.
	Mismatches []fixedwidth.WidthMismatch

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of data rows in the input.
	RowsRead int

	// LinesWritten is the number of fixed-width lines produced.
	LinesWritten int

	// FooterRemoved is true when a totals row was stripped.
	FooterRemoved bool

	// Warnings counts validation warnings and width mismatches.
	Warnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// PURE PIPELINE
// =============================================================================

// Output is the result of Convert.
type Output struct {
	Detection     detector.Detection
	Rows          types.CanonicalTable
	FooterRemoved bool
	Lines         []string
	Mismatches    []fixedwidth.WidthMismatch
}

// Convert runs detection, normalization, sorting, footer stripping and
// serialization over a table.
//
// RETURNS:
//   - The canonical rows that were serialized and their lines.
//   - detector.ErrUndetectableLayout (wrapped) when the layout cannot be found.
func Convert(table types.Table, writer *fixedwidth.Writer) (Output, error) {
	rows, det, err := normalizer.Normalize(table)
	if err != nil {
		return Output{Detection: det}, err
	}

	rows = normalizer.SortByDate(rows)
	rows, removed := footer.Strip(rows)

	lines, mismatches := writer.Serialize(rows)

	return Output{
		Detection:     det,
		Rows:          rows,
		FooterRemoved: removed,
		Lines:         lines,
		Mismatches:    mismatches,
	}, nil
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options holds per-run settings that do not come from the config file.
type Options struct {
	// Password opens protected workbooks. Overrides the configured one.
	Password string

	// Prompt asks for a password interactively. Nil disables prompting.
	Prompt xlsxparser.PasswordFunc

	// DryRun runs the pipeline without writing the output.
	DryRun bool
}

// Converter handles the conversion of a single file.
type Converter struct {
	inputPath  string
	outputPath string
	config     *config.MainConfig
	files      *utils.FileManager
	options    Options
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The spreadsheet to convert.
//   - mainConfig: The application configuration.
//   - options: Password and dry-run settings.
func New(inputPath string, mainConfig *config.MainConfig, options Options) *Converter {
	files := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir)
	files.NameFormat = mainConfig.OutputNameFormat
	files.Overwrite = mainConfig.Overwrite

	if options.Password == "" {
		options.Password = mainConfig.Password
	}

	return &Converter{
		inputPath:  inputPath,
		outputPath: files.OutputPath(inputPath),
		config:     mainConfig,
		files:      files,
		options:    options,
	}
}

// OutputPath returns where the converter writes its output. It is fixed when
// the converter is created, so {uuid} and {timestamp} names do not change
// between calls.
func (c *Converter) OutputPath() string {
	return c.outputPath
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file. The logger is taken
// from ctx.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	log := logger.FromContext(ctx).With().Str("file", filepath.Base(c.inputPath)).Logger()

	result := Result{
		FilePath:   c.inputPath,
		OutputFile: c.OutputPath(),
	}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1: SKIP EXISTING OUTPUT
	// =========================================================================

	if !c.files.Overwrite && !c.options.DryRun && utils.FileExists(result.OutputFile) {
		log.Info().Str("output", result.OutputFile).Msg("output exists, skipping (use --overwrite to replace)")
		result.Success = true
		result.Skipped = true
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 2: READ INPUT
	// =========================================================================

	grid, err := ReadTable(c.inputPath, c.config, c.options)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}

	result.Stats.RowsRead = grid.NumRows()
	log.Debug().Int("rows", grid.NumRows()).Int("columns", grid.NumColumns()).Msg("read input table")

	// =========================================================================
	// STEPS 3-5, 7: NORMALIZE, SORT, STRIP FOOTER, SERIALIZE
	// =========================================================================

	writer := fixedwidth.NewWriter(c.config.Layout, log)
	out, err := Convert(grid, writer)
	result.Detection = out.Detection
	if err != nil {
		result.Error = err
		return result
	}

	log.Debug().
		Floats64("date_scores", out.Detection.DateScores).
		Floats64("money_scores", out.Detection.MoneyScores).
		Int("date_column", out.Detection.DateColumn).
		Int("money_column_1", out.Detection.MoneyColumn1).
		Int("money_column_2", out.Detection.MoneyColumn2).
		Msg("detected column layout")

	if out.FooterRemoved {
		log.Info().Msg("removed trailing totals row")
	}

	result.Mismatches = out.Mismatches
	result.Stats.FooterRemoved = out.FooterRemoved
	result.Stats.LinesWritten = len(out.Lines)

	// =========================================================================
	// STEP 6: VALIDATE
	// =========================================================================

	validator := validation.NewValidatorWithOptions(validation.ValidationOptions{
		InitialSequence:       c.config.Layout.InitialSequence,
		TreatWarningsAsErrors: c.config.StrictValidation,
	})
	result.Validation = validator.ValidateAll(out.Rows)
	logFindings(log, result.Validation)

	result.Stats.Warnings = result.Validation.WarningCount + len(out.Mismatches)

	if !result.Validation.IsValid && !c.config.ShouldContinueOnError() {
		result.Error = fmt.Errorf("%w: %s", ErrValidationFailed, result.Validation.Summary())
		return result
	}

	// =========================================================================
	// STEP 8: WRITE OUTPUT
	// =========================================================================

	if c.options.DryRun {
		log.Info().Int("lines", len(out.Lines)).Str("output", result.OutputFile).Msg("dry run, output not written")
		result.Success = true
		return result
	}

	err = utils.WriteOutputFile(result.OutputFile, fixedwidth.Encode(out.Lines), c.files.Overwrite)
	if errors.Is(err, utils.ErrOutputExists) {
		log.Info().Str("output", result.OutputFile).Msg("output appeared during processing, skipping")
		result.Success = true
		result.Skipped = true
		return result
	}
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}

	log.Info().
		Int("lines", len(out.Lines)).
		Bool("footer_removed", out.FooterRemoved).
		Str("output", result.OutputFile).
		Msg("converted")

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// ReadTable reads an input file into a Grid, choosing the reader by extension.
func ReadTable(path string, mainConfig *config.MainConfig, options Options) (*types.Grid, error) {
	headerRows := mainConfig.Reader.HeaderRowCount()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return csvparser.Parse(path, csvparser.Settings{
			Delimiter:  mainConfig.Reader.CSVDelimiter,
			Encoding:   mainConfig.Reader.CSVEncoding,
			HeaderRows: headerRows,
		})
	}

	opts := xlsxparser.DefaultOptions()
	opts.Sheet = mainConfig.Reader.Sheet
	opts.HeaderRows = headerRows
	opts.Password = options.Password
	opts.Prompt = options.Prompt
	return xlsxparser.Parse(path, opts)
}

// logFindings logs validation errors and warnings.
func logFindings(log zerolog.Logger, result *validation.ValidationResult) {
	for _, finding := range result.Errors {
		event := log.Warn()
		if finding.Severity == validation.SeverityError {
			event = log.Error()
		}
		event.
			Str("rule", finding.Rule).
			Str("field", finding.Field).
			Str("value", finding.Value).
			Int("row", finding.RowNumber).
			Int("sequence", finding.Sequence).
			Msg(finding.Message)
	}
}
