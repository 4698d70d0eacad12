package power

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/psantana5/hibernate-retry/internal/fault"
)

// DefaultStatePath is the kernel power-state control attribute
const DefaultStatePath = "/sys/power/state"

// Sysfs hibernates by writing "disk" to the power-state attribute directly.
// The write blocks until the system has resumed.
type Sysfs struct {
	StatePath string
}

// NewSysfs creates a hibernator for the default state path
func NewSysfs() *Sysfs {
	return &Sysfs{StatePath: DefaultStatePath}
}

// Name implements Hibernator
func (s *Sysfs) Name() string {
	return "write disk > " + s.StatePath
}

// Supported reports whether the kernel offers suspend-to-disk
func (s *Sysfs) Supported() (bool, error) {
	data, err := os.ReadFile(s.StatePath)
	if err != nil {
		return false, err
	}
	for _, state := range strings.Fields(string(data)) {
		if state == "disk" {
			return true, nil
		}
	}
	return false, nil
}

// Hibernate implements Hibernator. The write itself cannot be cancelled;
// ctx is only checked before starting.
func (s *Sysfs) Hibernate(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Failed(-1, fault.Operational("hibernate", "interrupted", err))
	}

	ok, err := s.Supported()
	if err != nil {
		return Failed(-1, fault.Unavailable("hibernate", "cannot read "+s.StatePath, err))
	}
	if !ok {
		return Failed(-1, fault.Unavailable("hibernate", fmt.Sprintf("%s does not offer disk", s.StatePath), nil))
	}

	f, err := os.OpenFile(s.StatePath, os.O_WRONLY, 0)
	if err != nil {
		return Failed(-1, fault.Operational("hibernate", "cannot open "+s.StatePath, err))
	}
	defer f.Close()

	// The kernel rejects the write (EBUSY, EIO, ...) when a process refuses to freeze
	if _, err := f.WriteString("disk"); err != nil {
		return Failed(-1, fault.Operational("hibernate", "kernel refused hibernation", err))
	}

	return Succeeded()
}
