// =============================================================================
// Excel to TXT Converter - Cell Classifier
// =============================================================================
//
// This module decides whether a single cell looks like a date or like a
// monetary amount, and parses it into canonical form:
//   - dates become YYYYMMDD strings
//   - amounts become integer minor units (centavos)
//
// RECOGNIZED TEXT FORMS:
//   Dates:  "05/03/2020" (DD/MM/YYYY, surrounding whitespace allowed)
//   Money:  "R$ 1.234,56"  "R$1234,56"  "1.234,56"  "1234,56"
//
// Unparseable cells never fail: dates fall back to "" and amounts to 0, so a
// stray malformed cell cannot abort a whole conversion.
//
// =============================================================================

package classifier

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PATTERNS
// =============================================================================

var dateRx = regexp.MustCompile(`^\s*(\d{2})/(\d{2})/(\d{4})\s*$`)

var moneyRxs = []*regexp.Regexp{
	regexp.MustCompile(`^\s*R\$\s*\d{1,3}(?:\.\d{3})*,\d{2}\s*$`),
	regexp.MustCompile(`^\s*R\$\s*\d+,\d{2}\s*$`),
	regexp.MustCompile(`^\s*\d{1,3}(?:\.\d{3})*,\d{2}\s*$`),
	regexp.MustCompile(`^\s*\d+,\d{2}\s*$`),
}

// Fallback grammar for dates that are not strict DD/MM/YYYY.
var (
	dayFirstRx = regexp.MustCompile(`^(\d{1,2})([/.\-])(\d{1,2})([/.\-])(\d{4}|\d{2})(?:[ T]\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?)?$`)
	isoRx      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[ T]\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+\-]\d{2}:?\d{2})?)?$`)
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// =============================================================================
// DATES
// =============================================================================

// IsDateLike reports whether a cell is a native date or DD/MM/YYYY text.
func IsDateLike(cell types.Cell) bool {
	switch cell.Kind {
	case types.CellDate:
		return true
	case types.CellText:
		return dateRx.MatchString(strings.TrimSpace(cell.Text))
	default:
		return false
	}
}

// ParseDate returns the cell as an 8-character YYYYMMDD string, or "" when the
// cell is empty or cannot be read as a date.
//
// DD/MM/YYYY text is reassembled digit by digit without calendar validation,
// so "31/02/2024" yields "20240231". Any other text goes through the fallback
// grammar (see parseFallbackDate), whose results are calendar-checked.
func ParseDate(cell types.Cell) string {
	switch cell.Kind {
	case types.CellDate:
		return cell.Date.Format("20060102")
	case types.CellText:
		s := strings.TrimSpace(cell.Text)
		if m := dateRx.FindStringSubmatch(s); m != nil {
			return m[3] + m[2] + m[1]
		}
		if t, ok := parseFallbackDate(s); ok {
			return t.Format("20060102")
		}
		return ""
	default:
		return ""
	}
}

// parseFallbackDate accepts:
//   - day-first D/M/Y, D-M-Y or D.M.Y (1-2 digit day and month, 2 or 4 digit
//     year, same separator twice, optional time suffix)
//   - ISO YYYY-MM-DD with an optional time and zone suffix
//
// Two-digit years 00-68 map to 20xx and 69-99 to 19xx.
func parseFallbackDate(s string) (time.Time, bool) {
	if m := isoRx.FindStringSubmatch(s); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}

	m := dayFirstRx.FindStringSubmatch(s)
	if m == nil || m[2] != m[4] {
		return time.Time{}, false
	}

	year := m[5]
	if len(year) == 2 {
		yy, _ := strconv.Atoi(year)
		if yy < 69 {
			year = strconv.Itoa(2000 + yy)
		} else {
			year = strconv.Itoa(1900 + yy)
		}
	}
	return calendarDate(year, m[3], m[1])
}

// calendarDate builds a date and rejects values time.Date would normalize
// (e.g. month 13 or 30 February).
func calendarDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	mo, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// =============================================================================
// MONEY
// =============================================================================

// IsMoneyLike reports whether a cell is a native number or one of the four
// Brazilian-real text forms.
func IsMoneyLike(cell types.Cell) bool {
	switch cell.Kind {
	case types.CellNumber:
		return !math.IsNaN(cell.Number)
	case types.CellText:
		s := strings.TrimSpace(cell.Text)
		for _, rx := range moneyRxs {
			if rx.MatchString(s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ParseMoneyMinor converts a cell to integer minor units.
//
// Native numbers are multiplied by 100 and rounded. Text has its "R$" marker
// and whitespace removed, "." grouping dropped and "," turned into the decimal
// point before the same conversion. Rounding is half away from zero on the
// exact decimal value, so 0.125 becomes 13 and -0.125 becomes -13.
//
// Anything that cannot be parsed yields 0.
func ParseMoneyMinor(cell types.Cell) int64 {
	switch cell.Kind {
	case types.CellNumber:
		if math.IsNaN(cell.Number) || math.IsInf(cell.Number, 0) {
			return 0
		}
		return toMinor(decimal.NewFromFloat(cell.Number))
	case types.CellText:
		s := strings.ReplaceAll(cell.Text, "R$", "")
		s = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")

		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0
		}
		return toMinor(d)
	default:
		return 0
	}
}

// toMinor converts to centavos. Values outside the int64 range are
// unparseable and yield 0.
func toMinor(d decimal.Decimal) int64 {
	minor := d.Mul(hundred).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0
	}
	return minor.IntPart()
}
