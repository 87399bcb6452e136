/*
report.go - Validation report types

PURPOSE:
  The validator never mutates or repairs; each check returns the rows
  that violate its claim, and an empty result means pass. A non-empty
  result signals either a cleansing defect or raw data beyond the
  defined normalization rules - reportable, never fatal.
*/
package validate

import (
	"time"
)

// CheckKind classifies what a check claims about the data.
type CheckKind string

const (
	// KindUniqueness groups by a claimed key and flags groups with count > 1.
	KindUniqueness CheckKind = "uniqueness"
	// KindFormatting flags rows where a string field differs from its trimmed form.
	KindFormatting CheckKind = "formatting"
	// KindDomain flags coded-field values outside the closed label set.
	KindDomain CheckKind = "domain"
	// KindRange flags rows violating an ordering or bound invariant.
	KindRange CheckKind = "range"
	// KindReferential flags fact rows without a matching dimension row.
	KindReferential CheckKind = "referential"
)

// Violation identifies one offending row.
type Violation struct {
	RowKey string `json:"row_key"` // natural identifier of the offending row
	Detail string `json:"detail"`
}

// CheckResult is one check's identity plus its offending rows.
type CheckResult struct {
	Name       string      `json:"name"`
	Kind       CheckKind   `json:"kind"`
	Table      string      `json:"table"`
	Violations []Violation `json:"violations,omitempty"`
}

// Passed reports whether the check found nothing.
func (r CheckResult) Passed() bool {
	return len(r.Violations) == 0
}

// Report is the full battery outcome for one run, suitable for a
// CI-style pass/fail gate or an ops report.
type Report struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Results    []CheckResult `json:"results"`
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return true
}

// TotalViolations sums offending rows across all checks.
func (r *Report) TotalViolations() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Violations)
	}
	return n
}

// Failing returns only the non-passing results.
func (r *Report) Failing() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}
