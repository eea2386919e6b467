// =============================================================================
// Excel to TXT Converter - Footer Summary Detector
// =============================================================================
//
// Spreadsheet extracts often end with a totals row whose date cell is blank.
// This module decides whether the last blank-date row is such a footer and
// drops it.
//
// FOOTER RULES (either group is enough):
//   Exact total:  |amount1 - sum1| <= 1  or  |amount2 - sum2| <= 1
//   Outlier:      amount1 >= 5 * median1 (median1 > 0)
//                 or amount2 >= 5 * median2 (median2 > 0)
//
// Sums and medians are taken over every other row (the "body"), including
// any other blank-date rows.
//
// =============================================================================

package footer

import (
	"sort"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
)

const (
	// SumTolerance is the rounding slack, in minor units, for the exact-total rule.
	SumTolerance = 1

	// OutlierFactor is the multiple of the body median that marks an outlier.
	OutlierFactor = 5
)

// Strip removes the trailing totals row if one is detected.
//
// RETURNS:
//   - The table without the footer row (order preserved), or the original
//     table when there is no candidate or the candidate is not a footer.
//   - true when a row was removed.
func Strip(rows types.CanonicalTable) (types.CanonicalTable, bool) {
	if len(rows) == 0 {
		return rows, false
	}

	candidate := -1
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Date == "" {
			candidate = i
			break
		}
	}
	if candidate < 0 {
		return rows, false
	}

	body := make(types.CanonicalTable, 0, len(rows)-1)
	body = append(body, rows[:candidate]...)
	body = append(body, rows[candidate+1:]...)
	if len(body) == 0 {
		return rows, false
	}

	if !IsFooter(rows[candidate], body) {
		return rows, false
	}
	return body, true
}

// IsFooter applies the exact-total and outlier rules to a candidate row.
func IsFooter(candidate types.CanonicalRow, body types.CanonicalTable) bool {
	amounts1 := make([]int64, len(body))
	amounts2 := make([]int64, len(body))
	var sum1, sum2 int64
	for i, row := range body {
		amounts1[i] = row.Amount1
		amounts2[i] = row.Amount2
		sum1 += row.Amount1
		sum2 += row.Amount2
	}

	if abs(candidate.Amount1-sum1) <= SumTolerance || abs(candidate.Amount2-sum2) <= SumTolerance {
		return true
	}

	median1 := median(amounts1)
	median2 := median(amounts2)
	if median1 > 0 && float64(candidate.Amount1) >= OutlierFactor*median1 {
		return true
	}
	if median2 > 0 && float64(candidate.Amount2) >= OutlierFactor*median2 {
		return true
	}
	return false
}

// median returns the middle value, or the mean of the two middle values for
// an even count. values is reordered.
func median(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return float64(values[mid])
	}
	return (float64(values[mid-1]) + float64(values[mid])) / 2
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
