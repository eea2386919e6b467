// =============================================================================
// Excel to TXT Converter - Table Normalizer
// =============================================================================
//
// Turns a raw table into a canonical three-column table:
//
//   | Date (YYYYMMDD or "") | Amount1 (centavos) | Amount2 (centavos) |
//
// Column roles come from the detector; cell conversion from the classifier.
// Row order is preserved by Normalize. SortByDate orders the result for the
// footer detector and the serializer.
//
// =============================================================================

package normalizer

import (
	"sort"

	"github.com/ginjaninja78/excel-to-txt/internal/classifier"
	"github.com/ginjaninja78/excel-to-txt/internal/detector"
	"github.com/ginjaninja78/excel-to-txt/internal/types"
)

// Normalize detects the column layout of a table and converts every row.
//
// RETURNS:
//   - The canonical table, one row per input row, in input order.
//   - The detection used, for logging and inspection.
//   - detector.ErrUndetectableLayout (wrapped) if detection fails.
func Normalize(table types.Table) (types.CanonicalTable, detector.Detection, error) {
	det, err := detector.Detect(table)
	if err != nil {
		return nil, det, err
	}

	dates := table.Column(det.DateColumn)
	money1 := table.Column(det.MoneyColumn1)
	money2 := table.Column(det.MoneyColumn2)

	out := make(types.CanonicalTable, table.NumRows())
	for i := range out {
		out[i] = types.CanonicalRow{
			Date:    classifier.ParseDate(dates[i]),
			Amount1: classifier.ParseMoneyMinor(money1[i]),
			Amount2: classifier.ParseMoneyMinor(money2[i]),
		}
	}

	return out, det, nil
}

// SortByDate returns a copy of rows ordered by ascending date with blank
// dates last. Rows with equal dates keep their relative order.
func SortByDate(rows types.CanonicalTable) types.CanonicalTable {
	sorted := make(types.CanonicalTable, len(rows))
	copy(sorted, rows)

	// Dates are fixed-width digit strings, so byte order is date order.
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Date, sorted[j].Date
		switch {
		case a == "":
			return false
		case b == "":
			return true
		default:
			return a < b
		}
	})

	return sorted
}
