package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/hibernate-retry/internal/audit"
	"github.com/psantana5/hibernate-retry/internal/config"
	"github.com/psantana5/hibernate-retry/internal/controller"
	"github.com/psantana5/hibernate-retry/internal/journal"
	"github.com/psantana5/hibernate-retry/internal/power"
	"github.com/psantana5/hibernate-retry/internal/preflight"
	"github.com/psantana5/hibernate-retry/internal/proctable"
	"github.com/psantana5/hibernate-retry/internal/remediate"
	"github.com/psantana5/hibernate-retry/internal/report"
	"github.com/psantana5/hibernate-retry/internal/runlock"
	"github.com/psantana5/hibernate-retry/pkg/logging"
	"github.com/psantana5/hibernate-retry/pkg/shutdown"
	"github.com/psantana5/hibernate-retry/pkg/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Hibernate, killing blockers and retrying once on failure",
	Long: `Run tries to hibernate. If the attempt fails, the audit trail is searched
for processes that touched /sys/power/state, up to --kill-budget of them that
are not whitelisted are killed, and hibernation is retried once if anything
was killed.

Exit status is 0 when the machine hibernated and 1 otherwise.

Example:
  hibretry run
  hibretry run --kill-budget 1 --audit-since boot
  HIBERNATION_RETRY_LOG=/tmp/retry.log hibretry run --method sysfs`,
	Args: cobra.NoArgs,
	RunE: runHibernate,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runHibernate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.OpenOrStderr(cfg.LogFile, logging.ParseLevel(cfg.LogLevel), false)
	if err != nil {
		logger.Warn(fmt.Sprintf("general log unavailable, logging to stderr: %v", err))
	}

	sd := shutdown.New(10*time.Second, func(name string, err error) {
		logger.Warn(fmt.Sprintf("shutdown %s: %v", name, err))
	})
	defer sd.Shutdown()
	sd.Register("general log", shutdown.CloseResource(logger, "general log"))

	ctx, stop := shutdown.SignalContext(cmd.Context())
	defer stop()

	lock, err := runlock.Acquire(cfg.LockFile)
	switch {
	case errors.Is(err, runlock.ErrLocked):
		logger.Error(fmt.Sprintf("refusing to run: %v", err))
		return ErrNotHibernated
	case err != nil:
		logger.Warn(fmt.Sprintf("running without single-instance lock: %v", err))
	default:
		sd.Register("run lock", shutdown.CloseResource(lock, "run lock"))
	}

	tracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    "hibretry",
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Enabled:        cfg.Tracing.Endpoint != "",
	})
	if err != nil {
		logger.Warn(fmt.Sprintf("tracing disabled: %v", err))
		tracer = tracing.Noop()
	}
	sd.Register("tracer", tracer.Shutdown)

	retryLog, err := logging.OpenOrStderr(cfg.RetryLogFile, logging.INFO, false)
	if err != nil {
		logger.Warn(fmt.Sprintf("retry log unavailable, writing narrative to stderr: %v", err))
	}
	sd.Register("retry log", shutdown.CloseResource(retryLog, "retry log"))

	runID := controller.NewRunID()
	logger.Info(fmt.Sprintf("hibretry %s starting run %s (method=%s, kill_budget=%d, audit_key=%s, retry_log=%s)",
		Version, runID, cfg.HibernateMethod, cfg.KillBudget, cfg.AuditKey, cfg.RetryLogFile))

	if pre, err := preflight.Check(ctx); err != nil {
		logger.Warn(fmt.Sprintf("preflight: %v", err))
	} else {
		pre.Log(logger)
	}

	ctrl, metrics, err := buildController(cfg, journal.New(retryLog, runID), logger, tracer)
	if err != nil {
		return err
	}

	result := ctrl.Run(ctx)
	result.LogSummary(logger)

	if cfg.MetricsFile != "" {
		if err := report.WriteTextfile(cfg.MetricsFile, metrics.Registry()); err != nil {
			logger.Warn(fmt.Sprintf("failed to write metrics: %v", err))
		} else {
			logger.Debug("metrics written to " + cfg.MetricsFile)
		}
	}

	if !result.Hibernated {
		return ErrNotHibernated
	}
	return nil
}

// buildController wires the production adapters
func buildController(cfg *config.Config, j *journal.Journal, logger *logging.Logger, tracer *tracing.Provider) (*controller.Controller, *report.Metrics, error) {
	hibernator, err := power.New(cfg.HibernateMethod)
	if err != nil {
		return nil, nil, err
	}
	hibernateTimeout, err := cfg.HibernateTimeoutDuration()
	if err != nil {
		return nil, nil, err
	}

	metrics := report.NewMetrics()
	engine, err := buildEngine(cfg, j, logger, metrics, tracer)
	if err != nil {
		return nil, nil, err
	}

	return controller.New(controller.Config{
		Hibernator:       hibernator,
		Remediator:       engine,
		Journal:          j,
		Logger:           logger,
		Metrics:          metrics,
		Tracer:           tracer,
		HibernateTimeout: hibernateTimeout,
	}), metrics, nil
}

// buildEngine wires the remediation engine. A nil journal yields an engine
// suitable only for Plan.
func buildEngine(cfg *config.Config, j *journal.Journal, logger *logging.Logger, metrics *report.Metrics, tracer *tracing.Provider) (*remediate.Engine, error) {
	auditTimeout, err := cfg.AuditTimeoutDuration()
	if err != nil {
		return nil, err
	}

	return remediate.NewEngine(remediate.Config{
		Policy:       remediate.NewPolicy(cfg.Whitelist, cfg.KillBudget),
		AuditKey:     cfg.AuditKey,
		AuditTimeout: auditTimeout,
		Querier:      audit.NewAusearch(cfg.AuditSince),
		Finder:       proctable.NewTable(),
		Terminator:   proctable.NewKiller(),
		Journal:      j,
		Logger:       logger,
		Metrics:      metrics,
		Tracer:       tracer,
	}), nil
}

