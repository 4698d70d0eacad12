package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/hibernate-retry/internal/power"
	"github.com/psantana5/hibernate-retry/pkg/logging"
)

func TestNewResult(t *testing.T) {
	start := time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Second)

	tests := []struct {
		name       string
		attempts   []Attempt
		hibernated bool
		retried    bool
		exitCode   int
	}{
		{
			name:       "first attempt succeeds",
			attempts:   []Attempt{{Number: 1, Outcome: power.OutcomeSuccess}},
			hibernated: true,
			exitCode:   0,
		},
		{
			name: "retry succeeds",
			attempts: []Attempt{
				{Number: 1, Outcome: power.OutcomeFailure, Err: errors.New("busy")},
				{Number: 2, Outcome: power.OutcomeSuccess},
			},
			hibernated: true,
			retried:    true,
			exitCode:   0,
		},
		{
			name:     "no retry",
			attempts: []Attempt{{Number: 1, Outcome: power.OutcomeUnavailable}},
			exitCode: 1,
		},
		{
			name:     "no attempts",
			exitCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult("abcd1234", start, end, tt.attempts, len(tt.attempts) > 1, 0, 0)
			assert.Equal(t, tt.hibernated, r.Hibernated)
			assert.Equal(t, tt.retried, r.Retried)
			assert.Equal(t, tt.exitCode, r.ExitCode())
			assert.Equal(t, 4*time.Second, r.Duration)
		})
	}
}

func TestNewResult_CopiesAttempts(t *testing.T) {
	attempts := []Attempt{{Number: 1, Outcome: power.OutcomeSuccess}}
	r := NewResult("x", time.Now(), time.Now(), attempts, false, 0, 0)
	attempts[0].Outcome = power.OutcomeFailure
	assert.True(t, r.Attempts[0].Succeeded())
}

func TestLogSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.INFO, false)
	logger.SetOutput(&buf)

	now := time.Now()
	NewResult("abcd1234", now, now, []Attempt{{Number: 1, Outcome: power.OutcomeFailure}}, true, 2, 1).LogSummary(logger)

	line := buf.String()
	assert.Contains(t, line, "ERROR: RUN abcd1234 | outcome=FAILED | attempts=1 | candidates=2 | killed=1")
}

func TestMetrics_RecordResult(t *testing.T) {
	m := NewMetrics()
	now := time.Now()
	attempts := []Attempt{
		{Number: 1, Outcome: power.OutcomeFailure, Duration: time.Second},
		{Number: 2, Outcome: power.OutcomeSuccess, Duration: 2 * time.Second},
	}
	for _, a := range attempts {
		m.RecordAttempt(a)
	}
	m.RecordDecision("killed")
	m.RecordDecision("killed")
	m.RecordResult(NewResult("x", now, now, attempts, true, 2, 2))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HibernatedGauge()))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.KilledGauge()))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.DecisionGauge("killed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.attemptDuration.WithLabelValues("2")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.attemptOutcome.WithLabelValues("1", "failure")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAttempt(Attempt{Number: 1})
		m.RecordDecision("killed")
		m.RecordResult(&Result{})
	})
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordDecision("whitelisted")
	now := time.Now()
	m.RecordResult(NewResult("x", now, now, []Attempt{{Number: 1, Outcome: power.OutcomeSuccess}}, false, 0, 0))

	path := filepath.Join(t.TempDir(), "textfile", "hibretry.prom")
	require.NoError(t, WriteTextfile(path, m.Registry()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "hibretry_last_run_hibernated 1")
	assert.Contains(t, text, `hibretry_last_run_candidates{action="whitelisted"} 1`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temporary file left behind: %s", e.Name())
	}
}
