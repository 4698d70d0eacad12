// Package proctable resolves process names to live PIDs and delivers
// termination signals.
package proctable

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/shirou/gopsutil/v3/process"
)

// Process is the subset of a process table entry used for name matching
type Process struct {
	PID  int32
	Name string
}

// CommLen is the longest command name the kernel keeps (TASK_COMM_LEN - 1).
// Audit records carry names cut to this length.
const CommLen = 15

// Table looks processes up by exact command name, compared the way the
// kernel stores it. gopsutil reports the basename of argv[0] for long names,
// so listed names are cut to CommLen before matching.
type Table struct {
	ownPID int32
	list   func(ctx context.Context) ([]Process, error)
}

// NewTable creates a lookup over the live process table
func NewTable() *Table {
	return &Table{
		ownPID: int32(os.Getpid()),
		list:   listProcesses,
	}
}

// FindByExactName returns the PIDs whose command name equals name, sorted.
// The calling process and PIDs 0 and 1 are never returned. An empty result
// is not an error.
func (t *Table) FindByExactName(ctx context.Context, name string) ([]int32, error) {
	if name == "" {
		return nil, nil
	}

	procs, err := t.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var pids []int32
	for _, p := range procs {
		if p.PID <= 1 || p.PID == t.ownPID {
			continue
		}
		if comm(p.Name) == name {
			pids = append(pids, p.PID)
		}
	}

	slices.Sort(pids)
	return pids, nil
}

// Snapshot returns every visible process with its name
func (t *Table) Snapshot(ctx context.Context) ([]Process, error) {
	return t.list(ctx)
}

// comm cuts a process name to the length the kernel records
func comm(name string) string {
	if len(name) > CommLen {
		return name[:CommLen]
	}
	return name
}

func listProcesses(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // process may have exited
		}
		out = append(out, Process{PID: p.Pid, Name: name})
	}
	return out, nil
}
