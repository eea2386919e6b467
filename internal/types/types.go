// =============================================================================
// Excel to TXT Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - classifier
//   - detector
//   - normalizer
//   - footer
//   - fixedwidth
//   - xlsxparser / csvparser
//
// =============================================================================

package types

import "time"

// =============================================================================
// CELL VALUES
// =============================================================================

// CellKind tags the variant held by a Cell.
type CellKind int

const (
	// CellEmpty is a missing or blank cell.
	CellEmpty CellKind = iota

	// CellNumber is a native numeric cell.
	CellNumber

	// CellText is any textual cell, including numbers stored as text.
	CellText

	// CellDate is a native date/timestamp cell.
	CellDate
)

// String returns the kind name used in logs and the inspect command.
func (k CellKind) String() string {
	switch k {
	case CellNumber:
		return "number"
	case CellText:
		return "text"
	case CellDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell is a single spreadsheet value as handed over by a reader.
// Only the field matching Kind is meaningful.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Date   time.Time
}

// EmptyCell returns a blank cell.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// NumberCell returns a native numeric cell.
func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }

// TextCell returns a textual cell.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// DateCell returns a native date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Date: t} }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// =============================================================================
// TABLES
// =============================================================================

// Table is the read-only view the detector and normalizer work on.
// All columns have NumRows cells; rows are aligned by index.
type Table interface {
	NumColumns() int
	NumRows() int
	Column(i int) []Cell
}

// Grid is the in-memory Table produced by the spreadsheet readers.
type Grid struct {
	// Labels holds the header text of each column, if any.
	// Labels are cosmetic; detection never looks at them.
	Labels []string

	// Columns holds the cell values, column-major.
	Columns [][]Cell

	// SourceFile is the path of the file the grid was read from.
	SourceFile string
}

// NewGridFromRows builds a Grid from row-major data, padding ragged rows with
// empty cells so every column has the same length.
func NewGridFromRows(labels []string, rows [][]Cell) *Grid {
	width := len(labels)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := make([][]Cell, width)
	for c := range columns {
		columns[c] = make([]Cell, len(rows))
		for r, row := range rows {
			if c < len(row) {
				columns[c][r] = row[c]
			}
		}
	}

	padded := make([]string, width)
	copy(padded, labels)

	return &Grid{Labels: padded, Columns: columns}
}

// NumColumns implements Table.
func (g *Grid) NumColumns() int { return len(g.Columns) }

// NumRows implements Table.
func (g *Grid) NumRows() int {
	if len(g.Columns) == 0 {
		return 0
	}
	return len(g.Columns[0])
}

// Column implements Table.
func (g *Grid) Column(i int) []Cell { return g.Columns[i] }

// Label returns the cosmetic label of column i, or an empty string.
func (g *Grid) Label(i int) string {
	if i < len(g.Labels) {
		return g.Labels[i]
	}
	return ""
}

// =============================================================================
// CANONICAL ROWS
// =============================================================================

// CanonicalRow is one normalized record.
type CanonicalRow struct {
	// Date is exactly 8 ASCII digits (YYYYMMDD) or empty.
	Date string

	// Amount1 and Amount2 are signed integer minor units (centavos).
	Amount1 int64
	Amount2 int64
}

// CanonicalTable is an ordered sequence of canonical rows.
type CanonicalTable []CanonicalRow
