// =============================================================================
// Excel to TXT Converter - Column Detector
// =============================================================================
//
// Column roles are never read from header labels. Every column is scored
// against the cell classifier and the roles are picked by value:
//
//   date_score[c]  = fraction of rows where IsDateLike is true
//   money_score[c] = fraction of rows where IsMoneyLike is true
//
//   date column = argmax date_score            (first column wins ties)
//   money pair  = argmax money_score[c]+[c+1]  (first pair wins ties)
//
// The money pair is always two adjacent columns.
//
// =============================================================================

package detector

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/excel-to-txt/internal/classifier"
	"github.com/ginjaninja78/excel-to-txt/internal/types"
)

// ErrUndetectableLayout is returned when a table has no usable date column or
// no adjacent money pair.
var ErrUndetectableLayout = errors.New("undetectable layout: could not find a date column and two adjacent money columns")

// =============================================================================
// DETECTION RESULT
// =============================================================================

// Detection holds the chosen column indices and the scores behind them.
type Detection struct {
	// DateColumn is the 0-based index of the date column.
	DateColumn int

	// MoneyColumn1 and MoneyColumn2 are the adjacent money columns;
	// MoneyColumn2 is always MoneyColumn1+1.
	MoneyColumn1 int
	MoneyColumn2 int

	// DateScores and MoneyScores hold the per-column fractions.
	DateScores  []float64
	MoneyScores []float64
}

// String formats the detection for logs.
func (d Detection) String() string {
	return fmt.Sprintf("date=%d money=(%d,%d)", d.DateColumn, d.MoneyColumn1, d.MoneyColumn2)
}

// =============================================================================
// DETECTION
// =============================================================================

// Detect picks the date column and the adjacent money pair of a table.
//
// RETURNS:
//   - The Detection with the chosen indices and all column scores.
//   - ErrUndetectableLayout (wrapped) when the table has fewer than two
//     columns, no rows, no column with any date-like cell, or no adjacent
//     pair with any money-like cell.
func Detect(table types.Table) (Detection, error) {
	cols := table.NumColumns()
	rows := table.NumRows()

	if cols < 2 {
		return Detection{}, fmt.Errorf("%w: table has %d column(s)", ErrUndetectableLayout, cols)
	}
	if rows == 0 {
		return Detection{}, fmt.Errorf("%w: table has no rows", ErrUndetectableLayout)
	}

	// Counts are compared instead of fractions; every column shares the
	// same denominator so the ranking is identical.
	dateCounts := make([]int, cols)
	moneyCounts := make([]int, cols)
	for c := 0; c < cols; c++ {
		for _, cell := range table.Column(c) {
			if classifier.IsDateLike(cell) {
				dateCounts[c]++
			}
			if classifier.IsMoneyLike(cell) {
				moneyCounts[c]++
			}
		}
	}

	det := Detection{
		DateScores:  fractions(dateCounts, rows),
		MoneyScores: fractions(moneyCounts, rows),
	}

	bestDate := -1
	for c, n := range dateCounts {
		if n > 0 && (bestDate < 0 || n > dateCounts[bestDate]) {
			bestDate = c
		}
	}
	if bestDate < 0 {
		return det, fmt.Errorf("%w: no column holds dates", ErrUndetectableLayout)
	}

	bestPair, bestScore := -1, 0
	for c := 0; c+1 < cols; c++ {
		if score := moneyCounts[c] + moneyCounts[c+1]; score > bestScore {
			bestPair, bestScore = c, score
		}
	}
	if bestPair < 0 {
		return det, fmt.Errorf("%w: no adjacent columns hold amounts", ErrUndetectableLayout)
	}

	det.DateColumn = bestDate
	det.MoneyColumn1 = bestPair
	det.MoneyColumn2 = bestPair + 1
	return det, nil
}

func fractions(counts []int, rows int) []float64 {
	out := make([]float64, len(counts))
	for i, n := range counts {
		out[i] = float64(n) / float64(rows)
	}
	return out
}
