// =============================================================================
// Excel to TXT Converter - Validation Engine
// =============================================================================
//
// This module checks canonical rows before they are written.
//
// RULES:
//   | Rule            | Severity | Condition                                   |
//   |-----------------|----------|---------------------------------------------|
//   | date_format     | error    | date is not 8 digits                        |
//   | date_calendar   | warning  | 8 digits that are not a real calendar date  |
//   | date_missing    | warning  | blank date, written as "00000000"           |
//   | negative_amount | warning  | an amount below zero                        |
//   | amount_overflow | warning  | an amount wider than its 15-character field |
//
// ERROR HANDLING:
//   - Findings are collected, never returned early unless StopOnFirstError
//   - Each finding carries the row number and the output sequence number
//   - Errors make the result invalid; warnings only when TreatWarningsAsErrors
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Largest magnitudes that fit a 15-character amount field.
const (
	maxPositiveAmount = 999999999999999
	minNegativeAmount = -99999999999999
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is "date", "amount1" or "amount2".
	Field string

	// Value is the offending value as text.
	Value string

	// Rule is the violated rule name.
	Rule string

	// Message is a human-readable description.
	Message string

	// RowNumber is the 1-based position in the canonical table.
	RowNumber int

	// Sequence is the output line sequence number for that row.
	Sequence int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] row %d (sequence %d), field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Sequence,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsValidated is the number of rows checked.
	RowsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first fatal error.
	StopOnFirstError bool

	// TreatWarningsAsErrors makes any warning invalidate the result.
	TreatWarningsAsErrors bool

	// InitialSequence numbers the first row, matching the writer.
	// Default: 3
	InitialSequence int
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{InitialSequence: 3}
}

// Validator checks canonical tables.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// Validate checks rows with default options.
func Validate(rows types.CanonicalTable) *ValidationResult {
	return NewValidator().ValidateAll(rows)
}

// ValidateAll checks every row and returns a detailed result.
func (v *Validator) ValidateAll(rows types.CanonicalTable) *ValidationResult {
	result := &ValidationResult{
		IsValid:       true,
		Errors:        make([]*ValidationError, 0),
		RowsValidated: len(rows),
	}

	for i, row := range rows {
		for _, err := range v.ValidateRow(i+1, row) {
			result.Errors = append(result.Errors, err)

			if err.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false

				if v.options.StopOnFirstError {
					return result
				}
			} else {
				result.WarningCount++

				if v.options.TreatWarningsAsErrors {
					result.IsValid = false
				}
			}
		}
	}

	return result
}

// ValidateRow checks one row. rowNumber is 1-based.
func (v *Validator) ValidateRow(rowNumber int, row types.CanonicalRow) []*ValidationError {
	var errors []*ValidationError

	newError := func(severity, field, value, rule, message string) *ValidationError {
		return &ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			RowNumber: rowNumber,
			Sequence:  v.options.InitialSequence + rowNumber - 1,
		}
	}

	// =========================================================================
	// DATE VALIDATION
	// =========================================================================

	switch rule, message := validateDate(row.Date); rule {
	case "":
	case "date_missing", "date_calendar":
		errors = append(errors, newError(SeverityWarning, "date", row.Date, rule, message))
	default:
		errors = append(errors, newError(SeverityError, "date", row.Date, rule, message))
	}

	// =========================================================================
	// AMOUNT VALIDATION
	// =========================================================================

	amounts := []struct {
		field string
		value int64
	}{
		{"amount1", row.Amount1},
		{"amount2", row.Amount2},
	}
	for _, a := range amounts {
		value := strconv.FormatInt(a.value, 10)

		if a.value < 0 {
			errors = append(errors, newError(SeverityWarning, a.field, value, "negative_amount",
				"Negative amount is written with a leading '-' sign"))
		}
		if a.value > maxPositiveAmount || a.value < minNegativeAmount {
			errors = append(errors, newError(SeverityWarning, a.field, value, "amount_overflow",
				"Amount does not fit its 15-character field; the line will be wider than expected"))
		}
	}

	return errors
}

// validateDate returns the violated rule and a message, or "" when the date
// is acceptable.
func validateDate(date string) (string, string) {
	if date == "" {
		return "date_missing", "Date is blank and will be written as 00000000"
	}
	if len(date) != 8 || !isDigits(date) {
		return "date_format", "Date must be 8 digits in YYYYMMDD format"
	}
	if _, err := time.Parse("20060102", date); err != nil {
		return "date_calendar", "Date is not a valid calendar date and is written unchanged"
	}
	return "", ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// REPORTING
// =============================================================================

// Warnings returns the warning findings of a result.
func (r *ValidationResult) Warnings() []*ValidationError {
	return r.filter(SeverityWarning)
}

// Fatal returns the error findings of a result.
func (r *ValidationResult) Fatal() []*ValidationError {
	return r.filter(SeverityError)
}

func (r *ValidationResult) filter(severity string) []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == severity {
			out = append(out, e)
		}
	}
	return out
}

// Summary returns a one-line description of the result.
func (r *ValidationResult) Summary() string {
	return fmt.Sprintf("%d rows validated, %d errors, %d warnings",
		r.RowsValidated, r.ErrorCount, r.WarningCount)
}
