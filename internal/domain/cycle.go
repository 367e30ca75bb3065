package domain

import "time"

// MaxRecordErrors bounds the per-source error list in a cycle summary.
// Counts stay exact past the cap; only the detail list is truncated.
const MaxRecordErrors = 25

// RecordError pairs a record identifier with the kind of failure it hit.
type RecordError struct {
	RecordID string
	Reason   string
}

// SourceReport summarizes one source's outcome within a cycle.
type SourceReport struct {
	Source      string
	Ingested    int
	Updated     int
	Failed      int
	Errors      []RecordError
	FailureMsg  string
	StartedAt   time.Time
	CompletedAt time.Time
}

// AddError records a per-record failure, truncating the detail list at
// MaxRecordErrors while keeping the Failed count exact.
func (r *SourceReport) AddError(recordID, reason string) {
	r.Failed++
	if len(r.Errors) < MaxRecordErrors {
		r.Errors = append(r.Errors, RecordError{RecordID: recordID, Reason: reason})
	}
}

// Fail marks the whole source failed for the cycle.
func (r *SourceReport) Fail(reason string) {
	r.FailureMsg = reason
}

// CycleSummary is the sole reporting surface of one orchestrator cycle.
// Sources appear in configuration order.
type CycleSummary struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Sources     []SourceReport
}

// TotalIngested sums newly stored items across sources.
func (c CycleSummary) TotalIngested() int {
	total := 0
	for _, s := range c.Sources {
		total += s.Ingested
	}
	return total
}

// TotalUpdated sums in-place refreshes across sources.
func (c CycleSummary) TotalUpdated() int {
	total := 0
	for _, s := range c.Sources {
		total += s.Updated
	}
	return total
}

// TotalFailed sums per-record failures across sources.
func (c CycleSummary) TotalFailed() int {
	total := 0
	for _, s := range c.Sources {
		total += s.Failed
	}
	return total
}
