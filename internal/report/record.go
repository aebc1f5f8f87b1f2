// Package report keeps structured records of completed runs for
// later inspection. Records live in memory only; nothing is persisted
// between server processes.
package report

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a run ID has no stored record.
var ErrNotFound = errors.New("run not found")

// Store saves and retrieves run records.
type Store interface {
	Save(record *RunRecord) error
	Load(runID string) (*RunRecord, error)
}

// RunRecord holds the outcome of one run: the steps issued, the full
// progress transcript, and the exit code the run ended with.
type RunRecord struct {
	ID         string       `json:"id"`
	Target     string       `json:"target"` // target label, e.g. "localhost" or "host:port"
	Started    time.Time    `json:"started"`
	Steps      []StepRecord `json:"steps"`
	Transcript string       `json:"transcript"`
	ExitCode   int          `json:"exit_code"` // 0 on success
	Message    string       `json:"message,omitempty"`
}

// Failed reports whether the run ended in failure.
func (r *RunRecord) Failed() bool { return r.ExitCode != 0 }

// StepRecord describes one issued step.
type StepRecord struct {
	Display string `json:"display"` // the command line as shown in progress output
	Status  string `json:"status"`  // ok, failed, skipped
}

// Step statuses.
const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)
