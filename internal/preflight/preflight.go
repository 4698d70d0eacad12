// Package preflight checks whether the machine can plausibly hibernate.
// The result is advisory and never changes what a run does.
package preflight

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/psantana5/hibernate-retry/pkg/logging"
)

// Report summarizes memory and swap at the time of the check
type Report struct {
	RAMTotal  uint64
	RAMUsed   uint64
	SwapTotal uint64
	SwapFree  uint64
}

// Sufficient reports whether free swap can hold the RAM in use.
// The kernel compresses the image, so this errs on the cautious side.
func (r *Report) Sufficient() bool {
	return r.SwapFree >= r.RAMUsed
}

// Log writes the report to the general log
func (r *Report) Log(logger *logging.Logger) {
	msg := fmt.Sprintf("preflight: ram used %s of %s, swap free %s of %s",
		humanBytes(r.RAMUsed), humanBytes(r.RAMTotal), humanBytes(r.SwapFree), humanBytes(r.SwapTotal))
	switch {
	case r.SwapTotal == 0:
		logger.Warn(msg + ", no swap configured, hibernation will likely fail")
	case !r.Sufficient():
		logger.Warn(msg + ", free swap may not hold the hibernation image")
	default:
		logger.Info(msg)
	}
}

type memorySource interface {
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)
}

type hostMemory struct{}

func (hostMemory) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (hostMemory) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

// Check reads memory and swap usage of the host
func Check(ctx context.Context) (*Report, error) {
	return check(ctx, hostMemory{})
}

func check(ctx context.Context, src memorySource) (*Report, error) {
	vm, err := src.VirtualMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage: %w", err)
	}
	swap, err := src.SwapMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read swap usage: %w", err)
	}
	return &Report{
		RAMTotal:  vm.Total,
		RAMUsed:   vm.Used,
		SwapTotal: swap.Total,
		SwapFree:  swap.Free,
	}, nil
}

func humanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
