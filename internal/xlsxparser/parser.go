// =============================================================================
// Excel to TXT Converter - Spreadsheet Parser
// =============================================================================
//
// This module reads a worksheet into a types.Grid of typed cells:
//   - shared/inline strings, booleans and errors  -> text cells
//   - numbers with a date number format           -> date cells
//   - other numbers                               -> number cells
//   - ISO date cells (t="d")                      -> date cells
//   - blank cells                                 -> empty cells
//
// SUPPORTED FORMATS:
//   .xlsx / .xlsm  excelize, including password-protected workbooks
//   .xls           xlsReader; numbers with a date format in their XF record
//                  become date cells. Encrypted BIFF files are rejected with
//                  ErrEncryptedXLS.
//
// HEADER ROWS:
//   The first HeaderRows rows become cosmetic column labels. Fully empty data
//   rows are skipped and ragged rows are padded with empty cells.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for extensions the parser cannot read.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrPasswordRequired is returned for an encrypted workbook when no
	// password is available.
	ErrPasswordRequired = errors.New("workbook is password protected")

	// ErrWrongPassword is returned when every password attempt failed.
	ErrWrongPassword = errors.New("could not decrypt workbook with the supplied password")
)

// oleSignature starts every OLE2 compound file. Encrypted .xlsx files are
// wrapped in one; plain .xlsx files are ZIP archives.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// =============================================================================
// OPTIONS
// =============================================================================

// PasswordFunc asks for a workbook password. attempt starts at 1.
type PasswordFunc func(fileName string, attempt int) (string, error)

// Options controls how a worksheet is read.
type Options struct {
	// Sheet is the worksheet name. Empty means the first sheet.
	Sheet string

	// HeaderRows is the number of leading label rows.
	HeaderRows int

	// Password is tried first on encrypted workbooks.
	Password string

	// Prompt is asked for a password when Password is empty or wrong.
	// Nil disables prompting.
	Prompt PasswordFunc

	// MaxPasswordAttempts bounds the prompt loop.
	// Default: 3
	MaxPasswordAttempts int
}

// DefaultOptions returns options for a single header row and no password.
func DefaultOptions() Options {
	return Options{HeaderRows: 1, MaxPasswordAttempts: 3}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Supports reports whether the file extension can be read by Parse.
func Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

// Parse reads the configured worksheet of a spreadsheet file.
//
// PARAMETERS:
//   - path: The .xlsx, .xlsm or .xls file.
//   - opts: Sheet, header and password settings.
//
// RETURNS:
//   - The worksheet as a Grid.
//   - ErrUnsupportedFormat, ErrPasswordRequired, ErrWrongPassword, or a
//     wrapped read error.
func Parse(path string, opts Options) (*types.Grid, error) {
	var (
		grid *types.Grid
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		grid, err = parseXLSX(path, opts)
	case ".xls":
		grid, err = parseXLS(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	grid.SourceFile = path
	return grid, nil
}

// parseXLSX opens an .xlsx workbook, decrypting it first when needed.
func parseXLSX(path string, opts Options) (*types.Grid, error) {
	encrypted, err := isEncrypted(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	var f *excelize.File
	if encrypted {
		f, err = openEncrypted(path, opts)
	} else {
		f, err = excelize.OpenFile(path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readSheet(f, opts)
}

// openEncrypted tries opts.Password, then asks opts.Prompt up to
// MaxPasswordAttempts times.
func openEncrypted(path string, opts Options) (*excelize.File, error) {
	if opts.Password != "" {
		if f, err := excelize.OpenFile(path, excelize.Options{Password: opts.Password}); err == nil {
			return f, nil
		}
		if opts.Prompt == nil {
			return nil, ErrWrongPassword
		}
	}
	if opts.Prompt == nil {
		return nil, ErrPasswordRequired
	}

	attempts := opts.MaxPasswordAttempts
	if attempts <= 0 {
		attempts = 3
	}

	name := filepath.Base(path)
	for attempt := 1; attempt <= attempts; attempt++ {
		password, err := opts.Prompt(name, attempt)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		f, err := excelize.OpenFile(path, excelize.Options{Password: password})
		if err == nil {
			return f, nil
		}
	}

	return nil, ErrWrongPassword
}

// isEncrypted reports whether the file is an OLE2 container.
func isEncrypted(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	header := make([]byte, len(oleSignature))
	if _, err := io.ReadFull(file, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(header, oleSignature), nil
}

// =============================================================================
// SHEET READING
// =============================================================================

// readSheet converts one worksheet of an open workbook into a Grid.
func readSheet(f *excelize.File, opts Options) (*types.Grid, error) {
	sheetName := opts.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	reader := &cellReader{
		file:       f,
		sheet:      sheetName,
		date1904:   date1904,
		dateStyles: make(map[int]bool),
	}

	var labelRows [][]string
	var data [][]types.Cell
	for r, row := range rows {
		if r < opts.HeaderRows {
			labelRows = append(labelRows, row)
			continue
		}
		if isRowEmpty(row) {
			continue
		}

		cells := make([]types.Cell, len(row))
		for c, raw := range row {
			cells[c] = reader.cell(c, r, raw)
		}
		data = append(data, cells)
	}

	return types.NewGridFromRows(mergeLabels(labelRows), data), nil
}

// cellReader recovers cell types that GetRows flattens to strings.
type cellReader struct {
	file       *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func (cr *cellReader) cell(col, row int, raw string) types.Cell {
	if raw == "" {
		return types.EmptyCell()
	}

	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return types.TextCell(raw)
	}

	cellType, err := cr.file.GetCellType(cr.sheet, name)
	if err != nil {
		return types.TextCell(raw)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeBool, excelize.CellTypeError, excelize.CellTypeFormula:
		return types.TextCell(raw)
	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return types.DateCell(t)
		}
		return types.TextCell(raw)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return types.TextCell(raw)
	}

	if cr.isDateStyled(name) {
		if t, err := excelize.ExcelDateToTime(value, cr.date1904); err == nil {
			return types.DateCell(t)
		}
	}
	return types.NumberCell(value)
}

// isDateStyled reports whether the cell's number format renders a date.
func (cr *cellReader) isDateStyled(name string) bool {
	styleID, err := cr.file.GetCellStyle(cr.sheet, name)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := cr.dateStyles[styleID]; ok {
		return isDate
	}

	isDate := false
	if style, err := cr.file.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}

	cr.dateStyles[styleID] = isDate
	return isDate
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isDateNumFmt reports whether a built-in number format id is a date format.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains day or
// year tokens once literals and bracketed sections are removed.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.ToLower(b.String())
	return strings.ContainsAny(cleaned, "yd")
}

// parseISODate reads the value of an ISO 8601 date cell.
func parseISODate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// mergeLabels joins multi-row headers column by column:
//
//	Row 1:  "Valores", ""
//	Row 2:  "Débito", "Crédito"
//	Result: "Valores Débito", "Crédito"
func mergeLabels(rows [][]string) []string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	labels := make([]string, width)
	for c := range labels {
		var parts []string
		for _, row := range rows {
			if c < len(row) {
				if v := strings.TrimSpace(row[c]); v != "" {
					parts = append(parts, v)
				}
			}
		}
		labels[c] = strings.Join(parts, " ")
	}
	return labels
}
