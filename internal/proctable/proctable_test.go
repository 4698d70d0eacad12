package proctable

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func fakeTable(own int32, procs ...Process) *Table {
	return &Table{
		ownPID: own,
		list: func(ctx context.Context) ([]Process, error) {
			return procs, nil
		},
	}
}

func TestFindByExactName(t *testing.T) {
	table := fakeTable(99,
		Process{PID: 300, Name: "foo"},
		Process{PID: 120, Name: "foo"},
		Process{PID: 121, Name: "foobar"},
		Process{PID: 122, Name: "Foo"},
		Process{PID: 99, Name: "foo"},
	)

	pids, err := table.FindByExactName(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, []int32{120, 300}, pids, "exact, case-sensitive, sorted, own PID excluded")

	pids, err = table.FindByExactName(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, pids)

	pids, err = table.FindByExactName(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, pids)
}

func TestFindByExactName_LongNamesMatchKernelComm(t *testing.T) {
	table := fakeTable(99,
		Process{PID: 5409, Name: "gnome-software-service"},
		Process{PID: 5410, Name: "tracker-miner-fs-3"},
		Process{PID: 5411, Name: "short"},
	)

	pids, err := table.FindByExactName(context.Background(), "gnome-software-")
	require.NoError(t, err)
	assert.Equal(t, []int32{5409}, pids)

	pids, err = table.FindByExactName(context.Background(), "tracker-miner-f")
	require.NoError(t, err)
	assert.Equal(t, []int32{5410}, pids)

	pids, err = table.FindByExactName(context.Background(), "gnome-software-service")
	require.NoError(t, err)
	assert.Empty(t, pids, "audit never records more than 15 bytes")
}

func TestFindByExactName_NeverReturnsInit(t *testing.T) {
	table := fakeTable(99,
		Process{PID: 1, Name: "systemd"},
		Process{PID: 0, Name: "systemd"},
		Process{PID: 812, Name: "systemd"},
	)

	pids, err := table.FindByExactName(context.Background(), "systemd")
	require.NoError(t, err)
	assert.Equal(t, []int32{812}, pids)

	table = fakeTable(99, Process{PID: 1, Name: "init"})
	pids, err = table.FindByExactName(context.Background(), "init")
	require.NoError(t, err)
	assert.Empty(t, pids, "a name resolving only to pid 1 is unresolved")
}

func TestFindByExactName_ListError(t *testing.T) {
	table := &Table{list: func(context.Context) ([]Process, error) { return nil, errors.New("proc unreadable") }}

	_, err := table.FindByExactName(context.Background(), "foo")
	assert.Error(t, err)
}

func TestLiveTableFindsSelfExcluded(t *testing.T) {
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("no procfs")
	}
	table := NewTable()

	procs, err := table.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, procs)

	var ownName string
	for _, p := range procs {
		if p.PID == int32(os.Getpid()) {
			ownName = p.Name
		}
	}
	require.NotEmpty(t, ownName)

	pids, err := table.FindByExactName(context.Background(), ownName)
	require.NoError(t, err)
	assert.NotContains(t, pids, int32(os.Getpid()))
}

func TestKiller_Terminate(t *testing.T) {
	var sent []int
	k := &Killer{kill: func(pid int, sig unix.Signal) error {
		assert.Equal(t, unix.SIGKILL, sig)
		sent = append(sent, pid)
		if pid == 200 {
			return unix.ESRCH
		}
		return nil
	}}

	err := k.Terminate([]int32{100, 200, 300, 1, 0})

	assert.Equal(t, []int{100, 200, 300}, sent, "delivery continues past failures, pid 0/1 never signalled")
	require.Error(t, err)
	assert.ErrorIs(t, err, unix.ESRCH)
	assert.Contains(t, err.Error(), "refusing to signal pid 1")
}
