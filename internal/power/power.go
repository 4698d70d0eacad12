// Package power wraps the OS hibernate operation behind an explicit result type.
package power

import (
	"context"
	"fmt"

	"github.com/psantana5/hibernate-retry/internal/fault"
)

// Outcome is the result tag of a hibernate call
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is what a single hibernate call produced
type Result struct {
	Outcome  Outcome
	ExitCode int   // -1 when no process was run
	Err      error // nil on success
}

// OK reports whether the machine went through hibernation
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Succeeded builds a success result
func Succeeded() Result {
	return Result{Outcome: OutcomeSuccess}
}

// Failed builds a result from an error, mapping unavailable-kind faults to
// OutcomeUnavailable.
func Failed(exitCode int, err error) Result {
	outcome := OutcomeFailure
	if fault.KindOf(err) == fault.KindUnavailable {
		outcome = OutcomeUnavailable
	}
	return Result{Outcome: outcome, ExitCode: exitCode, Err: err}
}

// Hibernator triggers a suspend-to-disk transition and returns once the
// call completes (after resume on success).
type Hibernator interface {
	Name() string
	Hibernate(ctx context.Context) Result
}

const (
	MethodSystemctl = "systemctl"
	MethodSysfs     = "sysfs"
)

// New returns the hibernator for a configured method name
func New(method string) (Hibernator, error) {
	switch method {
	case "", MethodSystemctl:
		return NewSystemctl(), nil
	case MethodSysfs:
		return NewSysfs(), nil
	default:
		return nil, fmt.Errorf("unknown hibernate method %q (want %s or %s)", method, MethodSystemctl, MethodSysfs)
	}
}
