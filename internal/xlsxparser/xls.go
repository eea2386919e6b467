package xlsxparser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
	"github.com/shakinm/xlsReader/cfb"
	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"
)

// ErrEncryptedXLS is returned for BIFF workbooks protected with a password.
// Only the .xlsx encryption can be removed here.
var ErrEncryptedXLS = fmt.Errorf("%w: encrypted .xls workbooks cannot be opened, save the file as .xlsx", ErrPasswordRequired)

// BIFF8 record ids read from the workbook globals.
const (
	biffDateMode = 0x0022
	biffEOF      = 0x000A
	biffFilePass = 0x002F
)

// Cell record types as reported by xlsReader's GetType.
const (
	xlsNumberRecord = "*record.Number"
	xlsRKRecord     = "*record.Rk"
)

// =============================================================================
// LEGACY WORKBOOKS
// =============================================================================

// parseXLS reads a legacy BIFF8 workbook.
//
// Files with an .xls name are dispatched on their content:
//   - ZIP archives (.xlsx saved as .xls) go to excelize
//   - OLE2 files holding an encrypted .xlsx package go through the password
//     loop of openEncrypted
//   - OLE2 files with a FILEPASS record fail with ErrEncryptedXLS
//   - everything else is read with xlsReader
//
// Numbers whose XF record points at a date format become date cells, using
// the workbook's 1900 or 1904 date system.
func parseXLS(path string, opts Options) (*types.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	if !bytes.HasPrefix(data, oleSignature) {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to read .xls workbook: %w", err)
		}
		defer f.Close()
		return readSheet(f, opts)
	}

	globals, err := inspectCompound(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read .xls workbook: %w", err)
	}

	switch {
	case globals.encryptedPackage:
		f, err := openEncrypted(path, opts)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readSheet(f, opts)
	case globals.filePass:
		return nil, ErrEncryptedXLS
	}

	workbook, err := openXLS(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read .xls workbook: %w", err)
	}

	sheets := workbook.GetSheets()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	index := 0
	if opts.Sheet != "" {
		index = -1
		for i := range sheets {
			if sheets[i].GetName() == opts.Sheet {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, fmt.Errorf("sheet %q not found", opts.Sheet)
		}
	}

	sheet, err := workbook.GetSheet(index)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	reader := &xlsCellReader{
		workbook: &workbook,
		date1904: globals.date1904,
		dateXFs:  make(map[int]bool),
	}

	var labelRows [][]string
	var body [][]types.Cell
	for r, row := range sheet.GetRows() {
		cols := row.GetCols()

		values := make([]string, len(cols))
		for c, col := range cols {
			values[c] = col.GetString()
		}

		if r < opts.HeaderRows {
			labelRows = append(labelRows, values)
			continue
		}
		if isRowEmpty(values) {
			continue
		}

		cells := make([]types.Cell, len(cols))
		for c, col := range cols {
			cells[c] = reader.cell(col)
		}
		body = append(body, cells)
	}

	return types.NewGridFromRows(mergeLabels(labelRows), body), nil
}

// openXLS parses a BIFF workbook. xlsReader slices records without bounds
// checks, so a truncated file panics instead of failing.
func openXLS(data []byte) (workbook xls.Workbook, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed workbook: %v", r)
		}
	}()
	return xls.OpenReader(bytes.NewReader(data))
}

// =============================================================================
// COMPOUND FILE INSPECTION
// =============================================================================

// compoundGlobals holds what parseXLS needs to know before reading cells.
type compoundGlobals struct {
	// encryptedPackage is set for an encrypted .xlsx inside an OLE2 file.
	encryptedPackage bool

	// filePass is set when the BIFF globals carry a FILEPASS record.
	filePass bool

	// date1904 is set by a DATEMODE record with value 1.
	date1904 bool
}

// inspectCompound lists the streams of an OLE2 file and scans the BIFF
// workbook globals up to their EOF record.
func inspectCompound(data []byte) (globals compoundGlobals, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed compound file: %v", r)
		}
	}()

	doc, err := cfb.OpenReader(bytes.NewReader(data))
	if err != nil {
		return globals, err
	}

	var book, root *cfb.Directory
	for _, dir := range doc.GetDirs() {
		switch dir.Name() {
		case "EncryptionInfo", "EncryptedPackage":
			globals.encryptedPackage = true
		case "Workbook", "Book":
			if book == nil {
				book = dir
			}
		case "Root Entry":
			root = dir
		}
	}
	if globals.encryptedPackage {
		return globals, nil
	}
	if book == nil {
		return globals, errors.New("no Workbook stream")
	}

	r, err := doc.OpenObject(book, root)
	if err != nil {
		return globals, err
	}
	stream := make([]byte, book.GetStreamSize())
	if _, err := io.ReadFull(r, stream); err != nil {
		return globals, err
	}

	for pos := 0; pos+4 <= len(stream); {
		id := binary.LittleEndian.Uint16(stream[pos:])
		size := int(binary.LittleEndian.Uint16(stream[pos+2:]))
		start := pos + 4

		switch id {
		case biffFilePass:
			globals.filePass = true
		case biffDateMode:
			if size >= 2 && start+2 <= len(stream) {
				globals.date1904 = binary.LittleEndian.Uint16(stream[start:]) == 1
			}
		case biffEOF:
			return globals, nil
		}

		pos = start + size
	}

	return globals, nil
}

// =============================================================================
// CELL TYPING
// =============================================================================

// xlsCellReader types BIFF cells, caching the date check per XF index.
type xlsCellReader struct {
	workbook *xls.Workbook
	date1904 bool
	dateXFs  map[int]bool
}

func (xr *xlsCellReader) cell(col structure.CellData) types.Cell {
	switch col.GetType() {
	case xlsNumberRecord, xlsRKRecord:
	default:
		return xlsCell(col.GetString())
	}

	value := col.GetFloat64()
	if xr.isDateXF(col.GetXFIndex()) {
		if t, err := excelize.ExcelDateToTime(value, xr.date1904); err == nil {
			return types.DateCell(t)
		}
	}
	return types.NumberCell(value)
}

// isDateXF reports whether the XF record's number format renders a date.
func (xr *xlsCellReader) isDateXF(xf int) bool {
	if isDate, ok := xr.dateXFs[xf]; ok {
		return isDate
	}

	isDate := false
	if id, code, ok := xfFormat(xr.workbook, xf); ok {
		if id >= 164 {
			isDate = isDateFormatCode(code)
		} else {
			isDate = isDateNumFmt(id)
		}
	}

	xr.dateXFs[xf] = isDate
	return isDate
}

// xfFormat returns the number format id and code of an XF index. xlsReader
// indexes its XF table unchecked, so workbooks with fewer than 16 XF records
// panic on unknown indexes.
func xfFormat(workbook *xls.Workbook, xf int) (id int, code string, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	record := workbook.GetXFbyIndex(xf)
	id = record.GetFormatIndex()
	format := workbook.GetFormatByIndex(id)
	return id, format.String(), true
}

// xlsCell types a BIFF text cell. Plain numeric text becomes a number cell;
// anything else stays text.
func xlsCell(v string) types.Cell {
	s := strings.TrimSpace(v)
	if s == "" {
		return types.EmptyCell()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return types.NumberCell(f)
	}
	return types.TextCell(v)
}
