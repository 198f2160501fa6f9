package report

import (
	"fmt"

	"github.com/google/uuid"
)

// UnitStatus tracks one logical unit through its lifecycle:
// PENDING -> RUNNING -> {SUCCESS, ERROR}. ERROR is terminal and never
// blocks subsequent units.
type UnitStatus string

const (
	StatusPending UnitStatus = "PENDING"
	StatusRunning UnitStatus = "RUNNING"
	StatusSuccess UnitStatus = "SUCCESS"
	StatusError   UnitStatus = "ERROR"
)

// UnitResult is the outcome of one logical unit: an index build, a
// benchmark query, or an explain capture.
type UnitResult struct {
	Description string
	Status      UnitStatus
	Seconds     float64
	// Mode records the execution-analysis verbosity that produced the
	// result; only explain capture sets it.
	Mode    string
	Message string
}

// Start moves a pending unit to running. Any other transition is ignored.
func (u *UnitResult) Start() {
	if u.Status == StatusPending {
		u.Status = StatusRunning
	}
}

// Succeed completes a running unit with its elapsed seconds.
func (u *UnitResult) Succeed(seconds float64) {
	if u.Status == StatusRunning {
		u.Status = StatusSuccess
		u.Seconds = seconds
	}
}

// Fail terminates a running unit. A failed unit stays failed.
func (u *UnitResult) Fail(seconds float64, message string) {
	if u.Status == StatusRunning {
		u.Status = StatusError
		u.Seconds = seconds
		u.Message = message
	}
}

// RunReport accumulates unit outcomes for one run, in execution order.
type RunReport struct {
	RunID string
	Units []*UnitResult
}

// NewRunReport creates an empty report with a fresh run identifier.
func NewRunReport() *RunReport {
	return &RunReport{RunID: uuid.NewString()}
}

// Add registers a new pending unit and returns it for tracking.
func (r *RunReport) Add(description string) *UnitResult {
	unit := &UnitResult{Description: description, Status: StatusPending}
	r.Units = append(r.Units, unit)
	return unit
}

// Attempted counts units that left the pending state.
func (r *RunReport) Attempted() int {
	count := 0
	for _, u := range r.Units {
		if u.Status != StatusPending {
			count++
		}
	}
	return count
}

// Succeeded counts successful units.
func (r *RunReport) Succeeded() int {
	count := 0
	for _, u := range r.Units {
		if u.Status == StatusSuccess {
			count++
		}
	}
	return count
}

// Failed counts failed units.
func (r *RunReport) Failed() int {
	count := 0
	for _, u := range r.Units {
		if u.Status == StatusError {
			count++
		}
	}
	return count
}

// TotalSeconds sums elapsed time across all units.
func (r *RunReport) TotalSeconds() float64 {
	total := 0.0
	for _, u := range r.Units {
		total += u.Seconds
	}
	return total
}

// Summary renders the "N/M" closing line.
func (r *RunReport) Summary(what string) string {
	return fmt.Sprintf("%d/%d %s", r.Succeeded(), len(r.Units), what)
}
