package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/psantana5/hibernate-retry/internal/fault"
	"github.com/psantana5/hibernate-retry/pkg/retry"
)

// DefaultKey is the audit rule key of the power-state watch
const DefaultKey = "hibernate-issue"

// noMatches is what ausearch prints (with exit status 1) for an empty result
const noMatches = "<no matches>"

// Ausearch queries the audit logs with the ausearch tool
type Ausearch struct {
	Binary string
	// Since is passed to -ts ("recent", "boot", "today", "10/19/2026 10:00:00").
	// Empty searches all retained logs.
	Since string
	Retry retry.Config

	run func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// NewAusearch creates an ausearch-backed querier
func NewAusearch(since string) *Ausearch {
	return &Ausearch{
		Binary: "ausearch",
		Since:  since,
		Retry: retry.Config{
			MaxRetries:     2,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
			Retryable:      fault.IsTransient,
		},
		run: runCommand,
	}
}

// Args returns the ausearch arguments for key
func (a *Ausearch) Args(key string) []string {
	// --input-logs: ausearch reads stdin instead of the logs when it is not a terminal
	args := []string{"--input-logs", "--raw", "-k", key}
	if a.Since != "" {
		args = append(args, "-ts")
		args = append(args, strings.Fields(a.Since)...)
	}
	return args
}

// Query returns every record of every event tagged with key
func (a *Ausearch) Query(ctx context.Context, key string) ([]Record, error) {
	var records []Record

	err := retry.Do(ctx, a.Retry, func() error {
		stdout, stderr, err := a.run(ctx, a.Binary, a.Args(key)...)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return fault.Unavailable("audit_query", a.Binary+" not found", err)
			}

			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && bytes.Contains(stderr, []byte(noMatches)) {
				records = nil
				return nil
			}

			detail := strings.TrimSpace(string(stderr))
			if detail == "" {
				detail = err.Error()
			}
			kind := fault.Classify(errors.New(detail))
			if kind != fault.KindTransient {
				kind = fault.KindOperational
			}
			return fault.New(kind, "audit_query", fmt.Sprintf("%s -k %s failed: %s", a.Binary, key, detail), err)
		}

		parsed, err := Parse(bytes.NewReader(stdout))
		if err != nil {
			return fault.New(fault.KindMalformed, "audit_query", "cannot read ausearch output", err)
		}
		records = parsed
		return nil
	})

	return records, err
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
