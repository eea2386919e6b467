// =============================================================================
// Excel to TXT Converter - CSV Parser Module
// =============================================================================
//
// This module reads bank statements exported as CSV into a types.Grid.
// Every non-blank value becomes a text cell; the classifier decides later
// whether it looks like a date or an amount.
//
// FEATURES:
//   - Configurable delimiter (";" by default, as Brazilian exports use)
//   - UTF-8, Windows-1252 and ISO-8859-1 input
//   - Multi-line headers merged into one label per column
//   - Empty rows skipped, ragged rows padded
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// utf8BOM is stripped from the start of UTF-8 input.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls CSV parsing.
type Settings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "tab", "pipe", "semicolon", "comma".
	Delimiter string

	// Encoding is "UTF-8", "Windows-1252" or "ISO-8859-1".
	Encoding string

	// HeaderRows is the number of leading label rows.
	HeaderRows int
}

// DefaultSettings returns semicolon-separated UTF-8 with one header row.
func DefaultSettings() Settings {
	return Settings{Delimiter: ";", Encoding: "UTF-8", HeaderRows: 1}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns it as a Grid.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter, encoding and header settings.
//
// RETURNS:
//   - The parsed Grid.
//   - An error if the file cannot be read or decoded.
func Parse(filePath string, settings Settings) (*types.Grid, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	grid, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}

	grid.SourceFile = filePath
	return grid, nil
}

// ParseReader reads CSV data from r.
func ParseReader(r io.Reader, settings Settings) (*types.Grid, error) {
	reader, err := decode(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	headerRows := settings.HeaderRows
	if headerRows > len(allRows) {
		headerRows = len(allRows)
	}

	labels := mergeHeaders(allRows[:headerRows])

	var rows [][]types.Cell
	for _, row := range allRows[headerRows:] {
		if isRowEmpty(row) {
			continue
		}

		cells := make([]types.Cell, len(row))
		for i, value := range row {
			if strings.TrimSpace(value) == "" {
				cells[i] = types.EmptyCell()
			} else {
				cells[i] = types.TextCell(value)
			}
		}
		rows = append(rows, cells)
	}

	return types.NewGridFromRows(labels, rows), nil
}

// decode wraps r with a decoder for the configured character set.
func decode(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}

	buffered := bufio.NewReader(r)
	if enc == nil {
		if head, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = buffered.Discard(len(utf8BOM))
		}
		return buffered, nil
	}

	return transform.NewReader(buffered, enc.NewDecoder()), nil
}

// lookupEncoding maps a configured name to a decoder. UTF-8 returns nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "UTF-8", "UTF8":
		return nil, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	}
	return nil, fmt.Errorf("unsupported CSV encoding %q", name)
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) error {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon", "":
		reader.Comma = ';'
	case ",", "comma":
		reader.Comma = ','
	default:
		runes := []rune(settings.Delimiter)
		if len(runes) != 1 {
			return fmt.Errorf("invalid CSV delimiter %q", settings.Delimiter)
		}
		reader.Comma = runes[0]
	}

	// Statement exports are rarely rectangular.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return nil
}

// mergeHeaders joins multi-line headers column by column:
//
//	Row 1:  "Valores", ""
//	Row 2:  "Débito", "Crédito"
//	Result: "Valores Débito", "Crédito"
func mergeHeaders(rows [][]string) []string {
	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, row := range rows {
			if col < len(row) {
				if value := strings.TrimSpace(row[col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return headers
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
