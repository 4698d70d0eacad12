// Package controller drives a run: hibernate, remediate on failure, and
// retry exactly once when remediation killed something.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/psantana5/hibernate-retry/internal/journal"
	"github.com/psantana5/hibernate-retry/internal/observe"
	"github.com/psantana5/hibernate-retry/internal/power"
	"github.com/psantana5/hibernate-retry/internal/remediate"
	"github.com/psantana5/hibernate-retry/internal/report"
	"github.com/psantana5/hibernate-retry/pkg/logging"
	"github.com/psantana5/hibernate-retry/pkg/tracing"
)

// MaxAttempts is the number of hibernate calls a run may make
const MaxAttempts = 2

// Remediator runs one remediation pass after a failed attempt
type Remediator interface {
	Remediate(ctx context.Context) *remediate.Report
}

// Config wires a Controller to its collaborators
type Config struct {
	Hibernator       power.Hibernator
	Remediator       Remediator
	Journal          *journal.Journal
	Logger           *logging.Logger
	Metrics          *report.Metrics
	Tracer           *tracing.Provider
	HibernateTimeout time.Duration // 0 blocks until the hibernate call returns
	Clock            observe.Clock
}

// Controller owns the attempt/remediate/retry sequence of one run
type Controller struct {
	cfg Config
}

// NewRunID returns a short random identifier for a run
func NewRunID() string {
	return uuid.New().String()[:8]
}

// New creates a controller
func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger(logging.INFO, false)
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracing.Noop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Controller{cfg: cfg}
}

// Run performs the run and returns its immutable result
func (c *Controller) Run(ctx context.Context) *report.Result {
	ctx, span := c.cfg.Tracer.StartSpan(ctx, "hibernate.run",
		attribute.String("run.id", c.cfg.Journal.RunID()),
		attribute.String("hibernate.method", c.cfg.Hibernator.Name()),
	)
	defer span.End()

	startTime := c.cfg.Clock()
	var (
		attempts   []report.Attempt
		remediated bool
		candidates int
		killed     int
	)

	c.cfg.Journal.Attempt(1, "starting hibernation")
	first := c.attempt(ctx, 1)
	attempts = append(attempts, first)

	if !first.Succeeded() {
		remediated = true
		rep := c.cfg.Remediator.Remediate(ctx)
		if rep == nil {
			rep = &remediate.Report{}
		}
		candidates = len(rep.Candidates)
		killed = rep.Killed
		c.cfg.Logger.Info("remediation pass finished: " + rep.Summary())

		if rep.ShouldRetry() {
			c.cfg.Journal.Attempt(2, "starting hibernation (killed %d blocker(s))", rep.Killed)
			attempts = append(attempts, c.attempt(ctx, 2))
		} else {
			c.cfg.Journal.Retry("no killable processes found, no retry attempted")
		}
	}

	result := report.NewResult(c.cfg.Journal.RunID(), startTime, c.cfg.Clock(), attempts, remediated, candidates, killed)
	c.cfg.Metrics.RecordResult(result)
	span.SetAttributes(
		attribute.Bool("hibernated", result.Hibernated),
		attribute.Int("attempts", len(result.Attempts)),
	)
	return result
}

// attempt makes one hibernate call and journals its outcome.
// The caller journals the start line.
func (c *Controller) attempt(ctx context.Context, number int) report.Attempt {
	ctx, span := c.cfg.Tracer.StartSpan(ctx, "hibernate.attempt", attribute.Int("attempt", number))
	defer span.End()

	if c.cfg.HibernateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HibernateTimeout)
		defer cancel()
	}

	timing := observe.NewTimingWithClock(c.cfg.Clock)
	res := c.cfg.Hibernator.Hibernate(ctx)
	a := report.Attempt{
		Number:    number,
		StartedAt: timing.StartedAt,
		Duration:  timing.Complete(),
		Outcome:   res.Outcome,
		Err:       res.Err,
	}

	if a.Succeeded() {
		c.cfg.Journal.Attempt(number, "hibernation succeeded")
		c.cfg.Logger.Info(fmt.Sprintf("attempt %d: %s succeeded after %s", number, c.cfg.Hibernator.Name(), a.Duration.Round(time.Millisecond)))
	} else {
		reason := res.Err
		if reason == nil {
			reason = fmt.Errorf("exit status %d", res.ExitCode)
		}
		tracing.SetError(ctx, reason)
		c.cfg.Journal.Attempt(number, "hibernation failed (%s): %v", res.Outcome, reason)
		c.cfg.Logger.Warn(fmt.Sprintf("attempt %d: %s failed: %v", number, c.cfg.Hibernator.Name(), reason))
	}

	c.cfg.Metrics.RecordAttempt(a)
	return a
}
