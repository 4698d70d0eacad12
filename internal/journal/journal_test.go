package journal

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/hibernate-retry/pkg/logging"
)

var linePattern = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] INFO: run=abc123 (attempt 1|analysis|candidate foo|retry): .+$`)

func TestJournal_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.INFO, false)
	logger.SetOutput(&buf)

	j := New(logger, "abc123")
	j.Attempt(1, "starting hibernation")
	j.Analysis("querying audit events for key %q", "hibernate-issue")
	j.Candidate("foo", "killed with PIDs %v", []int32{1, 2})
	j.Retry("no retry attempted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Regexp(t, linePattern, line)
	}
	assert.Contains(t, lines[1], `"hibernate-issue"`)
}

func TestJournal_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "retry.log")

	for i := 0; i < 2; i++ {
		logger, err := logging.NewFileLogger(path, logging.INFO, false)
		require.NoError(t, err)
		New(logger, "abc123").Attempt(1, "starting hibernation")
		require.NoError(t, logger.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "attempt 1: starting hibernation"))
}
