package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/hibernate-retry/internal/config"
	"github.com/psantana5/hibernate-retry/internal/journal"
	"github.com/psantana5/hibernate-retry/internal/runlock"
	"github.com/psantana5/hibernate-retry/pkg/logging"
	"github.com/psantana5/hibernate-retry/pkg/tracing"
)

func quietLogger() *logging.Logger {
	logger := logging.NewLogger(logging.DEBUG, false)
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func TestBuildController(t *testing.T) {
	for _, method := range []string{"systemctl", "sysfs"} {
		t.Run(method, func(t *testing.T) {
			cfg := config.Default()
			cfg.HibernateMethod = method
			cfg.HibernateTimeout = "5m"
			cfg.AuditTimeout = "30s"

			ctrl, metrics, err := buildController(cfg, journal.New(quietLogger(), "wire0001"), quietLogger(), tracing.Noop())
			require.NoError(t, err)
			assert.NotNil(t, ctrl)
			require.NotNil(t, metrics)
			assert.NotNil(t, metrics.Registry())
		})
	}
}

func TestBuildController_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown method", func(c *config.Config) { c.HibernateMethod = "acpi" }},
		{"bad hibernate timeout", func(c *config.Config) { c.HibernateTimeout = "soon" }},
		{"bad audit timeout", func(c *config.Config) { c.AuditTimeout = "later" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			_, _, err := buildController(cfg, journal.New(quietLogger(), "wire0001"), quietLogger(), tracing.Noop())
			assert.Error(t, err)
		})
	}
}

func TestBuildEngine_PlanWithoutJournal(t *testing.T) {
	cfg := config.Default()
	cfg.KillBudget = 0

	engine, err := buildEngine(cfg, nil, quietLogger(), nil, tracing.Noop())
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestRunHibernate_RefusedWhileLocked(t *testing.T) {
	dir := t.TempDir()
	generalLog := filepath.Join(dir, "hibernate.log")
	retryLog := filepath.Join(dir, "retry.log")
	lockFile := filepath.Join(dir, "run.lock")

	policy := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(policy, []byte(
		"log_file: "+generalLog+"\n"+
			"retry_log_file: "+retryLog+"\n"+
			"lock_file: "+lockFile+"\n"), 0644))

	held, err := runlock.Acquire(lockFile)
	require.NoError(t, err)
	defer held.Close()

	prev := cfgFile
	cfgFile = policy
	defer func() { cfgFile = prev }()

	c := &cobra.Command{}
	c.SetContext(context.Background())

	err = runHibernate(c, nil)
	assert.ErrorIs(t, err, ErrNotHibernated)

	data, err := os.ReadFile(generalLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ERROR: refusing to run")

	_, err = os.Stat(retryLog)
	assert.True(t, os.IsNotExist(err), "a refused run writes no retry log")
}
