package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

const (
	minDataPoints     = 30
	maxNamedOffenders = 3
	validationOK      = "Data validation successful"
)

// Validate checks that records can feed a forecast. It returns the first
// failing reason, or "Data validation successful".
func Validate(records []dataset.Record, dateCol, targetCol string) (bool, string) {
	if len(records) == 0 {
		return false, "No data provided"
	}
	if !hasColumn(records, dateCol) {
		return false, fmt.Sprintf("Date column '%s' not found in data", dateCol)
	}
	if !hasColumn(records, targetCol) {
		return false, fmt.Sprintf("Target column '%s' not found in data", targetCol)
	}

	for i, r := range records {
		v := r[dateCol]
		if dataset.IsMissing(v) {
			continue
		}
		if _, ok := dataset.ParseDate(v); !ok {
			return false, fmt.Sprintf("Invalid date format in column '%s': row %d value '%v' is not a date", dateCol, i, v)
		}
	}

	var offenders []string
	for i, r := range records {
		v := r[targetCol]
		if dataset.IsMissing(v) {
			continue
		}
		if _, ok := dataset.ToFloat(v); !ok {
			offenders = append(offenders, fmt.Sprintf("Row %d: '%v' (type: %T)", i, v, v))
		}
	}
	if len(offenders) > 0 {
		if len(offenders) > maxNamedOffenders {
			offenders = offenders[:maxNamedOffenders]
		}
		return false, fmt.Sprintf("Target column '%s' contains non-numeric values: [%s]. Please select a numeric column for forecasting.",
			targetCol, strings.Join(offenders, ", "))
	}

	for _, r := range records {
		if dataset.IsMissing(r[dateCol]) {
			return false, fmt.Sprintf("Missing values found in date column '%s'", dateCol)
		}
	}
	for _, r := range records {
		if dataset.IsMissing(r[targetCol]) {
			return false, fmt.Sprintf("Missing values found in target column '%s'", targetCol)
		}
	}

	seen := make(map[time.Time]struct{}, len(records))
	for _, r := range records {
		d, _ := dataset.ParseDate(r[dateCol])
		day := dataset.Day(d)
		if _, dup := seen[day]; dup {
			return false, fmt.Sprintf("Duplicate dates found in column '%s'", dateCol)
		}
		seen[day] = struct{}{}
	}

	if len(records) < minDataPoints {
		return false, fmt.Sprintf("Insufficient data points (minimum %d required)", minDataPoints)
	}
	return true, validationOK
}

// Check is Validate as an error; the error is a *ValidationError.
func Check(records []dataset.Record, dateCol, targetCol string) error {
	if ok, reason := Validate(records, dateCol, targetCol); !ok {
		return &ValidationError{Reason: reason}
	}
	return nil
}

func hasColumn(records []dataset.Record, name string) bool {
	for _, r := range records {
		if _, ok := r[name]; ok {
			return true
		}
	}
	return false
}
