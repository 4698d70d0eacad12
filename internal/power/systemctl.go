package power

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/psantana5/hibernate-retry/internal/fault"
)

// Systemctl hibernates through "systemctl hibernate"
type Systemctl struct {
	Binary string
	Args   []string

	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewSystemctl creates the default systemd hibernator
func NewSystemctl() *Systemctl {
	return &Systemctl{
		Binary:   "systemctl",
		Args:     []string{"hibernate"},
		lookPath: exec.LookPath,
		command:  exec.CommandContext,
	}
}

// Name implements Hibernator
func (s *Systemctl) Name() string {
	return "systemctl " + strings.Join(s.Args, " ")
}

// Hibernate implements Hibernator
func (s *Systemctl) Hibernate(ctx context.Context) Result {
	path, err := s.lookPath(s.Binary)
	if err != nil {
		return Failed(-1, fault.Unavailable("hibernate", s.Binary+" not found", err))
	}

	cmd := s.command(ctx, path, s.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Failed(-1, fault.Operational("hibernate", "interrupted", ctx.Err()))
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := fmt.Sprintf("%s exited with status %d", s.Name(), exitErr.ExitCode())
			if detail := strings.TrimSpace(stderr.String()); detail != "" {
				msg += ": " + detail
			}
			return Failed(exitErr.ExitCode(), fault.Operational("hibernate", msg, nil))
		}
		return Failed(-1, fault.Operational("hibernate", "failed to run "+s.Name(), err))
	}

	return Succeeded()
}
