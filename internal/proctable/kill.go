package proctable

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Killer sends SIGKILL. Delivery is fire-and-forget: nothing waits for the
// processes to exit.
type Killer struct {
	kill func(pid int, sig unix.Signal) error
}

// NewKiller creates a SIGKILL sender
func NewKiller() *Killer {
	return &Killer{kill: unix.Kill}
}

// Terminate signals every pid and returns the joined per-PID errors.
// A failure on one PID does not stop delivery to the others.
func (k *Killer) Terminate(pids []int32) error {
	var errs []error
	for _, pid := range pids {
		if pid <= 1 {
			errs = append(errs, fmt.Errorf("refusing to signal pid %d", pid))
			continue
		}
		if err := k.kill(int(pid), unix.SIGKILL); err != nil {
			errs = append(errs, fmt.Errorf("kill %d: %w", pid, err))
		}
	}
	return errors.Join(errs...)
}
