// =============================================================================
// Excel to TXT Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the converter:
//   - Directory management (entradas/ and saidas/)
//   - Input discovery
//   - Output naming and writing
//   - Run summaries
//
// DISCOVERY RULES:
//   - Only .xls, .xlsx and .csv files in the input directory (not recursive)
//   - "~$" files (Office lock files) are ignored
//   - Files whose name contains "_padronizado" are ignored; they are the
//     output of an earlier standardisation step
//   - Results are sorted by name
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrOutputExists is returned when an output file exists and overwriting is off.
var ErrOutputExists = errors.New("output file already exists")

// InputExtensions lists the extensions picked up by DiscoverInputFiles.
var InputExtensions = []string{".xls", ".xlsx", ".csv"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is scanned for spreadsheets.
	InputDir string

	// OutputDir receives the TXT files.
	OutputDir string

	// NameFormat names output files. See GenerateOutputFileName.
	NameFormat string

	// Overwrite replaces existing outputs instead of failing with
	// ErrOutputExists.
	Overwrite bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir string) *FileManager {
	return &FileManager{
		InputDir:   inputDir,
		OutputDir:  outputDir,
		NameFormat: "{stem}.txt",
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the input and output directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the convertible files of the input directory.
//
// RETURNS:
//   - The file paths, sorted by name.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() || !IsInputFile(entry.Name()) {
			continue
		}
		result = append(result, filepath.Join(fm.InputDir, entry.Name()))
	}

	sort.Strings(result)
	return result, nil
}

// IsInputFile reports whether a file name passes the discovery rules.
func IsInputFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	if strings.Contains(strings.ToLower(Stem(base)), "_padronizado") {
		return false
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, allowed := range InputExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// OutputPath returns where the output for inputFile is written.
func (fm *FileManager) OutputPath(inputFile string) string {
	name := GenerateOutputFileName(fm.NameFormat, map[string]string{
		"stem": Stem(inputFile),
	})
	return filepath.Join(fm.OutputDir, name)
}

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name, with placeholders.
//   - params: Extra placeholder values, keyed without braces.
//
// PLACEHOLDERS:
//
//	{stem}      - Input file name without extension
//	{uuid}      - A random UUID
//	{timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//	{date}      - Current date (YYYYMMDD)
//	{time}      - Current time (HHMMSS)
//
// EXAMPLE:
//
//	format: "{stem}_{date}.txt"
//	params: {"stem": "extrato_janeiro"}
//	output: "extrato_janeiro_20240115.txt"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if filepath.Ext(result) == "" {
		result += ".txt"
	}

	return result
}

// WriteOutputFile writes data to path. Unless overwrite is set, an existing
// file is left alone and ErrOutputExists is returned.
func WriteOutputFile(path string, data []byte, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return file.Close()
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	SkippedFiles    int
	FailedFiles     int
	TotalLines      int
	FootersRemoved  int
	Warnings        int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Lines       int
	Skipped     bool
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummary writes a human-readable run summary.
func WriteSummary(w io.Writer, summary ProcessingSummary) error {
	writer := bufio.NewWriter(w)

	duration := summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond)
	fmt.Fprintf(writer, "Excel to TXT Converter - Processing Summary\n"+
		"================================================================================\n"+
		"  Run ID:          %s\n"+
		"  Duration:        %s\n"+
		"  Total Files:     %d\n"+
		"  Successful:      %d\n"+
		"  Skipped:         %d\n"+
		"  Failed:          %d\n"+
		"  Lines Written:   %d\n"+
		"  Footers Removed: %d\n"+
		"  Warnings:        %d\n",
		summary.RunID,
		duration,
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.SkippedFiles,
		summary.FailedFiles,
		summary.TotalLines,
		summary.FootersRemoved,
		summary.Warnings)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("\nProcessed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			if pf.Skipped {
				fmt.Fprintf(writer, "  %s -> %s (skipped, output exists)\n", pf.InputFile, pf.OutputFile)
				continue
			}
			fmt.Fprintf(writer, "  %s -> %s (%d lines, %s)\n", pf.InputFile, pf.OutputFile, pf.Lines, pf.ProcessTime.Round(time.Millisecond))
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("\nFailed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  %s: %s\n", ff.InputFile, ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n")
	return writer.Flush()
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
