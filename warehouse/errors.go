/*
errors.go - Centralized error types for the warehouse engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stage packages wrap these with additional context.

ERROR CATEGORIES:
  1. Row-level conditions - malformed input localized to one row; never
     aborts a stage (the row is dropped or defaulted per policy)
  2. Stage failures - an entire per-table step could not complete; fatal
     for the stage, carries name/table/duration for diagnosis and re-run

Row-level degradations that are NOT errors by design: unparsable dates
and zero-quantity price derivations degrade to nil fields, and unresolved
fact references degrade to nil surrogate keys. Those surface through the
validator, not through this package.

USAGE:
  if errors.Is(err, warehouse.ErrMalformedProductKey) { ... }

  var stageErr *warehouse.StageError
  if errors.As(err, &stageErr) {
      log.Errorw("stage failed", "stage", stageErr.Stage, "table", stageErr.Table)
  }
*/
package warehouse

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedProductKey is returned when a composite product key is
	// shorter than the fixed-position decomposition requires (7 chars).
	ErrMalformedProductKey = errors.New("malformed product key")

	// ErrUnknownTable is returned when a caller names a source table the
	// engine does not model.
	ErrUnknownTable = errors.New("unknown source table")

	// ErrNoRun is returned when output is requested before any run has
	// produced it.
	ErrNoRun = errors.New("no completed run")
)

// =============================================================================
// STAGE FAILURE - fatal for one per-table step
// =============================================================================

// StageError reports that a per-table cleansing or assembly step could not
// complete. Already-committed output of other stages is unaffected; the
// stage is safe to re-run because every stage is a full recompute.
type StageError struct {
	Stage    string // e.g. "cleanse", "assemble", "persist"
	Table    string // source or output table name
	Duration time.Duration
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed for %s after %s: %v",
		e.Stage, e.Table, e.Duration, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps a cause with stage identity and timing.
func NewStageError(stage, table string, d time.Duration, err error) *StageError {
	return &StageError{Stage: stage, Table: table, Duration: d, Err: err}
}

// IsStageFailure reports whether err (or anything it wraps) is a StageError.
func IsStageFailure(err error) bool {
	var se *StageError
	return errors.As(err, &se)
}
