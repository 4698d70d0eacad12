package runlock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock", "hibernate-retry.lock")

	first, err := Acquire(path)
	require.NoError(t, err)

	_, err = Acquire(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Close())

	second, err := Acquire(path)
	require.NoError(t, err)
	assert.Equal(t, path, second.Path())
	require.NoError(t, second.Close())
}

func TestAcquire_WritesPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	l, err := Acquire(path)
	require.NoError(t, err)
	defer l.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))
}

func TestClose_Idempotent(t *testing.T) {
	l, err := Acquire(filepath.Join(t.TempDir(), "run.lock"))
	require.NoError(t, err)
	require.NoError(t, l.Close())
	assert.NoError(t, l.Close())

	var nilLock *Lock
	assert.NoError(t, nilLock.Close())
}
