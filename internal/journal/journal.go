// Package journal writes the retry narrative: one line per phase transition
// of a run, appended to the retry log.
package journal

import (
	"fmt"

	"github.com/psantana5/hibernate-retry/pkg/logging"
)

// Journal appends narrative lines tagged with the run ID and the phase that
// produced them, so each line can be read on its own.
type Journal struct {
	logger *logging.Logger
	runID  string
}

// New creates a journal writing through logger
func New(logger *logging.Logger, runID string) *Journal {
	return &Journal{logger: logger, runID: runID}
}

// RunID returns the run identifier carried on every line
func (j *Journal) RunID() string {
	return j.runID
}

// Attempt records a hibernate attempt event
func (j *Journal) Attempt(number int, format string, args ...interface{}) {
	j.record(fmt.Sprintf("attempt %d", number), format, args...)
}

// Analysis records a remediation pass event
func (j *Journal) Analysis(format string, args ...interface{}) {
	j.record("analysis", format, args...)
}

// Candidate records the decision taken for one candidate name
func (j *Journal) Candidate(name string, format string, args ...interface{}) {
	j.record("candidate "+name, format, args...)
}

// Retry records the retry decision when no second attempt is made
func (j *Journal) Retry(format string, args ...interface{}) {
	j.record("retry", format, args...)
}

func (j *Journal) record(phase, format string, args ...interface{}) {
	j.logger.Info(fmt.Sprintf("run=%s %s: %s", j.runID, phase, fmt.Sprintf(format, args...)))
}
