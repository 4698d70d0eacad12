package preflight

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/hibernate-retry/pkg/logging"
)

type fakeMemory struct {
	vm      *mem.VirtualMemoryStat
	swap    *mem.SwapMemoryStat
	swapErr error
}

func (f fakeMemory) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return f.vm, nil
}

func (f fakeMemory) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return f.swap, f.swapErr
}

const gib = 1 << 30

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		used       uint64
		swapTotal  uint64
		swapFree   uint64
		sufficient bool
		level      string
	}{
		{"plenty of swap", 4 * gib, 16 * gib, 16 * gib, true, "INFO"},
		{"swap too small", 12 * gib, 8 * gib, 8 * gib, false, "WARN"},
		{"no swap", 1 * gib, 0, 0, false, "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fakeMemory{
				vm:   &mem.VirtualMemoryStat{Total: 16 * gib, Used: tt.used},
				swap: &mem.SwapMemoryStat{Total: tt.swapTotal, Free: tt.swapFree},
			}
			rep, err := check(context.Background(), src)
			require.NoError(t, err)
			assert.Equal(t, tt.sufficient, rep.Sufficient())

			var buf bytes.Buffer
			logger := logging.NewLogger(logging.INFO, false)
			logger.SetOutput(&buf)
			rep.Log(logger)
			assert.Contains(t, buf.String(), tt.level+": preflight:")
		})
	}
}

func TestCheck_SwapError(t *testing.T) {
	src := fakeMemory{vm: &mem.VirtualMemoryStat{}, swapErr: errors.New("no /proc/swaps")}
	_, err := check(context.Background(), src)
	assert.ErrorContains(t, err, "failed to read swap usage")
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512B", humanBytes(512))
	assert.Equal(t, "1.0KiB", humanBytes(1024))
	assert.Equal(t, "1.5GiB", humanBytes(gib+gib/2))
}
