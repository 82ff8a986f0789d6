// Package validation checks field values against per-table schemas and
// reports structured outcomes with severities and suggested corrections.
package validation

import "fmt"

// Severity grades a validation outcome.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// IsHard reports whether s is an error or critical severity.
func (s Severity) IsHard() bool {
	return s == SeverityError || s == SeverityCritical
}

// Result is the outcome of validating one field of one record.
type Result struct {
	Field     string   `json:"field" yaml:"field"`
	Value     any      `json:"value" yaml:"value"`
	Valid     bool     `json:"is_valid" yaml:"is_valid"`
	Severity  Severity `json:"severity" yaml:"severity"`
	Message   string   `json:"message" yaml:"message"`
	Suggested any      `json:"suggested_value,omitempty" yaml:"suggested_value,omitempty"`
}

// Hard reports whether r is a failed result with error or critical severity.
func (r Result) Hard() bool {
	return !r.Valid && r.Severity.IsHard()
}

// Warning reports whether r is a failed result with warning severity.
func (r Result) Warning() bool {
	return !r.Valid && r.Severity == SeverityWarning
}

func pass(field string, value any, msg string) Result {
	return Result{Field: field, Value: value, Valid: true, Severity: SeverityInfo, Message: msg}
}

func fail(field string, value any, format string, args ...any) Result {
	return Result{Field: field, Value: value, Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}
