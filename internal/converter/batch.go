package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ginjaninja78/excel-to-txt/internal/config"
	"github.com/ginjaninja78/excel-to-txt/internal/logger"
	"github.com/ginjaninja78/excel-to-txt/pkg/utils"
	"github.com/google/uuid"
)

// ErrDuplicateOutput is reported for a file whose output path is already
// claimed by an earlier file of the same batch.
var ErrDuplicateOutput = errors.New("output path already claimed by another input")

// =============================================================================
// BATCH PROCESSING
// =============================================================================

// RunBatch converts files concurrently, at most mainConfig.MaxConcurrency at
// a time. A failing file never stops the others.
//
// Files are matched to output paths before any conversion starts. When two
// inputs map to the same output (extrato.xls and extrato.csv with "{stem}.txt"),
// the first one in files keeps it and the later ones fail with
// ErrDuplicateOutput.
//
// RETURNS:
//   - One Result per file, in the order of files.
//   - A summary of the run.
func RunBatch(ctx context.Context, files []string, mainConfig *config.MainConfig, options Options) ([]Result, utils.ProcessingSummary) {
	runID := uuid.New().String()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	start := time.Now()

	limit := mainConfig.MaxConcurrency
	if limit < 1 {
		limit = 1
	}
	// Interactive password prompts cannot share the terminal.
	if options.Prompt != nil {
		limit = 1
	}

	log.Info().Int("files", len(files)).Int("concurrency", limit).Msg("starting batch")

	results := make([]Result, len(files))
	converters := make([]*Converter, len(files))
	claimed := make(map[string]string, len(files))

	for i, file := range files {
		c := New(file, mainConfig, options)
		output := filepath.Clean(c.OutputPath())

		if first, ok := claimed[output]; ok {
			log.Warn().Str("file", filepath.Base(file)).Str("output", output).Str("claimed_by", filepath.Base(first)).Msg("duplicate output path")
			results[i] = Result{
				FilePath:   file,
				OutputFile: c.OutputPath(),
				Error:      fmt.Errorf("%w: %s and %s both write %s", ErrDuplicateOutput, filepath.Base(first), filepath.Base(file), output),
			}
			continue
		}

		claimed[output] = file
		converters[i] = c
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, c := range converters {
		if c == nil {
			continue
		}
		wg.Add(1)

		go func(i int, c *Converter) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result{FilePath: c.inputPath, OutputFile: c.OutputPath(), Error: ctx.Err()}
				return
			}

			results[i] = c.Run(ctx)
		}(i, c)
	}

	wg.Wait()

	summary := Summarize(runID, start, results)

	log.Info().
		Int("successful", summary.SuccessfulFiles).
		Int("skipped", summary.SkippedFiles).
		Int("failed", summary.FailedFiles).
		Msg("batch complete")

	return results, summary
}

// Summarize builds a run summary from results.
func Summarize(runID string, start time.Time, results []Result) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		RunID:      runID,
		StartTime:  start,
		EndTime:    time.Now(),
		TotalFiles: len(results),
	}

	for _, r := range results {
		if !r.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.FilePath,
				ErrorMessage: errorMessage(r.Error),
			})
			continue
		}

		if r.Skipped {
			summary.SkippedFiles++
		} else {
			summary.SuccessfulFiles++
			summary.TotalLines += r.Stats.LinesWritten
			summary.Warnings += r.Stats.Warnings
			if r.Stats.FooterRemoved {
				summary.FootersRemoved++
			}
		}

		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   r.FilePath,
			OutputFile:  r.OutputFile,
			Lines:       r.Stats.LinesWritten,
			Skipped:     r.Skipped,
			ProcessTime: r.Stats.ProcessingTime,
		})
	}

	return summary
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
