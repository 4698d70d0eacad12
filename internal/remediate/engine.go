// Package remediate finds the processes the audit subsystem saw touching the
// power state and kills a bounded, whitelist-filtered subset of them.
package remediate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/psantana5/hibernate-retry/internal/audit"
	"github.com/psantana5/hibernate-retry/internal/journal"
	"github.com/psantana5/hibernate-retry/internal/report"
	"github.com/psantana5/hibernate-retry/pkg/logging"
	"github.com/psantana5/hibernate-retry/pkg/tracing"
)

// Querier returns the audit records filed under a key
type Querier interface {
	Query(ctx context.Context, key string) ([]audit.Record, error)
}

// Finder resolves a process name to the PIDs currently running under it
type Finder interface {
	FindByExactName(ctx context.Context, name string) ([]int32, error)
}

// Terminator forcibly terminates processes
type Terminator interface {
	Terminate(pids []int32) error
}

// Config wires an Engine to its collaborators
type Config struct {
	Policy       Policy
	AuditKey     string
	AuditTimeout time.Duration // 0 blocks until the query returns

	Querier    Querier
	Finder     Finder
	Terminator Terminator

	Journal *journal.Journal
	Logger  *logging.Logger
	Metrics *report.Metrics
	Tracer  *tracing.Provider
}

// Engine runs remediation passes. It holds no state between passes.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine. A nil Logger logs to stderr and a nil Tracer
// records nothing.
func NewEngine(cfg Config) *Engine {
	if cfg.AuditKey == "" {
		cfg.AuditKey = audit.DefaultKey
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger(logging.INFO, false)
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracing.Noop()
	}
	return &Engine{cfg: cfg}
}

// Remediate runs one pass: query, extract, filter, kill. Every step is
// journaled. Faults are absorbed into the report; Remediate never fails.
func (e *Engine) Remediate(ctx context.Context) *Report {
	return e.pass(ctx, false)
}

// Plan runs the same pass without sending signals or writing the journal.
// Names that would be killed are reported as ActionWouldKill and still
// consume the budget.
func (e *Engine) Plan(ctx context.Context) *Report {
	return e.pass(ctx, true)
}

func (e *Engine) pass(ctx context.Context, dryRun bool) *Report {
	ctx, span := e.cfg.Tracer.StartSpan(ctx, "remediate.pass",
		attribute.String("audit.key", e.cfg.AuditKey),
		attribute.Int("kill.budget", e.cfg.Policy.Budget()),
		attribute.Bool("dry_run", dryRun),
	)
	defer span.End()

	journalf := func(format string, args ...interface{}) {
		if !dryRun && e.cfg.Journal != nil {
			e.cfg.Journal.Analysis(format, args...)
		}
	}
	candidatef := func(name, format string, args ...interface{}) {
		if !dryRun && e.cfg.Journal != nil {
			e.cfg.Journal.Candidate(name, format, args...)
		}
	}

	rep := &Report{}

	journalf("querying audit events for key %q", e.cfg.AuditKey)
	records, err := e.query(ctx)
	if err != nil {
		rep.QueryErr = err
		tracing.SetError(ctx, err)
		e.cfg.Logger.Warn(fmt.Sprintf("audit query for key %q failed: %v", e.cfg.AuditKey, err))
		journalf("audit query failed: %v", err)
		journalf("complete, killed %d process name(s)", rep.Killed)
		return rep
	}

	rep.Candidates = audit.Candidates(audit.ProcessNames(records))
	span.SetAttributes(attribute.Int("candidates", len(rep.Candidates)))
	if len(rep.Candidates) == 0 {
		journalf("no blocking processes found in audit events")
	}

	budget := e.cfg.Policy.Budget()
	for _, name := range rep.Candidates {
		if rep.Killed >= budget {
			candidatef(name, "kill limit (%d) reached, stopping", budget)
			e.decide(rep, Decision{Name: name, Action: ActionLimitReached}, dryRun)
			break
		}

		if e.cfg.Policy.IsWhitelisted(name) {
			candidatef(name, "whitelisted, skipped")
			e.decide(rep, Decision{Name: name, Action: ActionWhitelisted}, dryRun)
			continue
		}

		pids, err := e.cfg.Finder.FindByExactName(ctx, name)
		if err != nil {
			e.cfg.Logger.Warn(fmt.Sprintf("process lookup for %q failed: %v", name, err))
			candidatef(name, "process lookup failed, nothing killed: %v", err)
			e.decide(rep, Decision{Name: name, Action: ActionLookupFailed, Detail: err.Error()}, dryRun)
			continue
		}
		if len(pids) == 0 {
			candidatef(name, "no running process, nothing killed")
			e.decide(rep, Decision{Name: name, Action: ActionUnresolved}, dryRun)
			continue
		}

		if dryRun {
			e.decide(rep, Decision{Name: name, PIDs: pids, Action: ActionWouldKill}, dryRun)
			rep.Killed++
			continue
		}

		d := Decision{Name: name, PIDs: pids, Action: ActionKilled}
		if err := e.cfg.Terminator.Terminate(pids); err != nil {
			// Signal delivery is best-effort; the name still counts
			e.cfg.Logger.Warn(fmt.Sprintf("failed to signal %q: %v", name, err))
			d.Detail = err.Error()
		}
		candidatef(name, "killed with PIDs %s", FormatPIDs(pids))
		tracing.AddEvent(ctx, "killed", attribute.String("process.name", name))
		e.decide(rep, d, dryRun)
		rep.Killed++
	}

	span.SetAttributes(attribute.Int("killed", rep.Killed))
	journalf("complete, killed %d process name(s)", rep.Killed)
	return rep
}

func (e *Engine) query(ctx context.Context) ([]audit.Record, error) {
	if e.cfg.Querier == nil {
		return nil, fmt.Errorf("no audit querier configured")
	}
	if e.cfg.AuditTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.AuditTimeout)
		defer cancel()
	}
	return e.cfg.Querier.Query(ctx, e.cfg.AuditKey)
}

func (e *Engine) decide(rep *Report, d Decision, dryRun bool) {
	rep.Decisions = append(rep.Decisions, d)
	if !dryRun {
		e.cfg.Metrics.RecordDecision(d.Action.String())
	}
}

// FormatPIDs renders PIDs as a comma separated list
func FormatPIDs(pids []int32) string {
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = strconv.Itoa(int(pid))
	}
	return strings.Join(parts, ", ")
}
