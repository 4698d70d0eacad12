package report

import (
	"fmt"
	"time"

	"github.com/psantana5/hibernate-retry/internal/power"
	"github.com/psantana5/hibernate-retry/pkg/logging"
)

// Attempt is one hibernate call. Created when the call starts, completed
// once its outcome is known.
type Attempt struct {
	Number    int           `json:"number"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Outcome   power.Outcome `json:"-"`
	Err       error         `json:"-"`
}

// Succeeded reports whether this attempt hibernated the machine
func (a Attempt) Succeeded() bool {
	return a.Outcome == power.OutcomeSuccess
}

// Result is immutable run-level truth. Set once, never change.
// The exit status, the metrics and the general-log summary are all derived from it.
type Result struct {
	RunID string `json:"run_id"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	Attempts   []Attempt `json:"attempts"`
	Candidates int       `json:"candidates"`
	Killed     int       `json:"killed"`

	Remediated bool `json:"remediated"`
	Retried    bool `json:"retried"`
	Hibernated bool `json:"hibernated"`
}

// NewResult creates an immutable result from the attempts of a run
func NewResult(runID string, startTime, endTime time.Time, attempts []Attempt, remediated bool, candidates, killed int) *Result {
	r := &Result{
		RunID:      runID,
		StartTime:  startTime,
		EndTime:    endTime,
		Duration:   endTime.Sub(startTime),
		Attempts:   append([]Attempt(nil), attempts...),
		Candidates: candidates,
		Killed:     killed,
		Remediated: remediated,
		Retried:    len(attempts) > 1,
	}
	if n := len(attempts); n > 0 {
		r.Hibernated = attempts[n-1].Succeeded()
	}
	return r
}

// ExitCode maps the result to the process exit status
func (r *Result) ExitCode() int {
	if r.Hibernated {
		return 0
	}
	return 1
}

// LogSummary emits a human-readable one-line summary on the general log
func (r *Result) LogSummary(logger *logging.Logger) {
	outcome := "HIBERNATED"
	if !r.Hibernated {
		outcome = "FAILED"
	}

	msg := fmt.Sprintf("RUN %s | outcome=%s | attempts=%d | candidates=%d | killed=%d | runtime=%.1fs",
		r.RunID,
		outcome,
		len(r.Attempts),
		r.Candidates,
		r.Killed,
		r.Duration.Seconds(),
	)

	if r.Hibernated {
		logger.Info(msg)
	} else {
		logger.Error(msg)
	}
}
