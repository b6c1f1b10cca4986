// Package batch runs extract, decode and route over many statement documents
// with a bounded worker pool.
package batch

import (
	"fmt"
	"strings"

	"dbkr/kontoauszug-reader/internal/models"
	"dbkr/kontoauszug-reader/internal/output"
)

// DateRange is the overall statement period covered by a run.
type DateRange struct {
	Start models.Date
	End   models.Date
}

// String returns the range as "dd.mm.yyyy - dd.mm.yyyy", or "" when empty.
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s - %s", dr.Start, dr.End)
}

// Merge combines this range with another, returning the overall range.
func (dr DateRange) Merge(other DateRange) DateRange {
	start, end := dr.Start, dr.End

	if start.IsZero() || (!other.Start.IsZero() && other.Start.Before(start)) {
		start = other.Start
	}
	if end.IsZero() || (!other.End.IsZero() && end.Before(other.End)) {
		end = other.End
	}
	return DateRange{Start: start, End: end}
}

// Failure is one document that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Result summarizes a run.
type Result struct {
	RunID string
	// Documents is the number of documents extracted and decoded.
	Documents int
	// Statements counts documents that contained a statement header.
	Statements int
	// Skipped counts documents never started because the run was aborted.
	Skipped  int
	Failures []Failure
	Output   output.Stats
	Period   DateRange
}

// Failed reports whether any document failed.
func (r *Result) Failed() bool {
	return len(r.Failures) > 0
}

// FailureSummary lists the failed documents, one per line.
func (r *Result) FailureSummary() string {
	var b strings.Builder
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "%s: %v\n", f.Path, f.Err)
	}
	return b.String()
}
