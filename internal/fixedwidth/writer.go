// =============================================================================
// Excel to TXT Converter - Fixed-Width Writer
// =============================================================================
//
// This module renders canonical rows as fixed-width text lines for the
// downstream interchange system.
//
// LINE LAYOUT (default layout, 1-based columns):
//
//   | Cols     | Width | Content                                   |
//   |----------|-------|-------------------------------------------|
//   | 1-2      | 2     | record type, "02"                         |
//   | 3-8      | 6     | sequence number, zero padded              |
//   | 9-25     | 17    | identifier, "03654036541584001"           |
//   | 26-33    | 8     | date YYYYMMDD, "00000000" when blank      |
//   | 34-48    | 15    | amount 1 in centavos, zero padded         |
//   | 49-63    | 15    | amount 2 in centavos, zero padded         |
//   | 64-1000  | 937   | spaces                                    |
//
// NEGATIVE AMOUNTS:
//   A negative amount keeps its 15 characters: the sign takes the first one
//   and the magnitude is zero padded to 14 digits ("-00000000012345").
//
// WIDTH MISMATCHES:
//   Fields that overflow their width (a sequence above 999999, an amount
//   above 15 characters) widen the line. Such lines are reported as warnings
//   and written unchanged; they are never truncated or re-padded.
//
// =============================================================================

package fixedwidth

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
	"github.com/rs/zerolog"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	sequenceWidth = 6
	dateWidth     = 8
	amountWidth   = 15

	// LineSeparator joins lines in the output file.
	LineSeparator = "\r\n"
)

// Layout holds the constants of the interchange format.
type Layout struct {
	// RecordType is the 2-character line type code.
	RecordType string `yaml:"record_type"`

	// Identifier is the fixed 17-character identifier written on every line.
	Identifier string `yaml:"identifier"`

	// LineWidth is the total length of every line.
	LineWidth int `yaml:"line_width"`

	// InitialSequence is the sequence number of the first line.
	InitialSequence int `yaml:"initial_sequence"`
}

// DefaultLayout returns the layout expected by the downstream system.
func DefaultLayout() Layout {
	return Layout{
		RecordType:      "02",
		Identifier:      "03654036541584001",
		LineWidth:       1000,
		InitialSequence: 3,
	}
}

// FieldsWidth is the width of everything before the trailing padding.
func (l Layout) FieldsWidth() int {
	return len(l.RecordType) + sequenceWidth + len(l.Identifier) + dateWidth + 2*amountWidth
}

// Validate checks the layout constants.
func (l Layout) Validate() error {
	if len(l.RecordType) != 2 {
		return fmt.Errorf("record type must be 2 characters, got %q", l.RecordType)
	}
	if len(l.Identifier) != 17 {
		return fmt.Errorf("identifier must be 17 characters, got %d", len(l.Identifier))
	}
	if l.LineWidth < l.FieldsWidth() {
		return fmt.Errorf("line width %d is smaller than the %d characters of fields", l.LineWidth, l.FieldsWidth())
	}
	if l.InitialSequence < 0 {
		return fmt.Errorf("initial sequence cannot be negative")
	}
	return nil
}

// =============================================================================
// WIDTH MISMATCH REPORT
// =============================================================================

// WidthMismatch describes a line whose length differs from the layout width.
type WidthMismatch struct {
	Sequence int
	Length   int
	Expected int
}

// String formats the mismatch for logs and summaries.
func (m WidthMismatch) String() string {
	return fmt.Sprintf("line %d has length %d (expected %d)", m.Sequence, m.Length, m.Expected)
}

// =============================================================================
// WRITER
// =============================================================================

// Writer serializes canonical tables with a fixed layout.
type Writer struct {
	layout  Layout
	padding string
	log     zerolog.Logger
}

// NewWriter creates a Writer. Width mismatches are logged on log at warn level.
func NewWriter(layout Layout, log zerolog.Logger) *Writer {
	pad := layout.LineWidth - layout.FieldsWidth()
	if pad < 0 {
		pad = 0
	}
	return &Writer{
		layout:  layout,
		padding: strings.Repeat(" ", pad),
		log:     log,
	}
}

// Layout returns the writer's layout.
func (w *Writer) Layout() Layout { return w.layout }

// Serialize renders one line per row, numbering lines from the layout's
// initial sequence.
//
// RETURNS:
//   - The lines, in row order.
//   - Every line whose length is not the layout width. Processing continues
//     past mismatches.
func (w *Writer) Serialize(rows types.CanonicalTable) ([]string, []WidthMismatch) {
	lines := make([]string, 0, len(rows))
	var mismatches []WidthMismatch

	seq := w.layout.InitialSequence
	for _, row := range rows {
		line := w.FormatLine(seq, row)
		if len(line) != w.layout.LineWidth {
			m := WidthMismatch{Sequence: seq, Length: len(line), Expected: w.layout.LineWidth}
			mismatches = append(mismatches, m)
			w.log.Warn().
				Int("sequence", m.Sequence).
				Int("length", m.Length).
				Int("expected", m.Expected).
				Msg("fixed-width line has unexpected length")
		}
		lines = append(lines, line)
		seq++
	}

	return lines, mismatches
}

// FormatLine renders a single row with the given sequence number.
func (w *Writer) FormatLine(seq int, row types.CanonicalRow) string {
	var b strings.Builder
	b.Grow(w.layout.LineWidth)

	b.WriteString(w.layout.RecordType)
	fmt.Fprintf(&b, "%0*d", sequenceWidth, seq)
	b.WriteString(w.layout.Identifier)
	b.WriteString(formatDate(row.Date))
	fmt.Fprintf(&b, "%0*d", amountWidth, row.Amount1)
	fmt.Fprintf(&b, "%0*d", amountWidth, row.Amount2)
	b.WriteString(w.padding)

	return b.String()
}

// formatDate keeps the first 8 characters and left-pads with zeros; a blank
// date becomes the "00000000" placeholder.
func formatDate(date string) string {
	if date == "" {
		return strings.Repeat("0", dateWidth)
	}
	if len(date) > dateWidth {
		date = date[:dateWidth]
	}
	return strings.Repeat("0", dateWidth-len(date)) + date
}

// Encode joins lines with CRLF. There is no trailing separator.
func Encode(lines []string) []byte {
	return []byte(strings.Join(lines, LineSeparator))
}
