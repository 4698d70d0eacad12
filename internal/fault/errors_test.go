package fault

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"missing binary", fmt.Errorf("lookup: %w", exec.ErrNotFound), KindUnavailable},
		{"eagain", fmt.Errorf("read: %w", syscall.EAGAIN), KindTransient},
		{"deadline", context.DeadlineExceeded, KindOperational},
		{"timeout text", errors.New("i/o timeout"), KindTransient},
		{"missing sysfs", errors.New("open /sys/power/state: no such file or directory"), KindUnavailable},
		{"other", errors.New("permission denied"), KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestKindOf_PrefersWrappedError(t *testing.T) {
	inner := Unavailable("hibernate", "systemctl not found", exec.ErrNotFound)
	wrapped := fmt.Errorf("attempt 1: %w", inner)

	assert.Equal(t, KindUnavailable, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, exec.ErrNotFound)
	assert.False(t, IsTransient(wrapped))
}

func TestError_Message(t *testing.T) {
	err := Operational("hibernate", "systemctl exited with status 1", nil)
	assert.Equal(t, "hibernate: systemctl exited with status 1", err.Error())

	err = New(KindTransient, "audit_query", "ausearch failed", errors.New("EAGAIN"))
	assert.Equal(t, "audit_query: ausearch failed: EAGAIN", err.Error())
	assert.Equal(t, "transient", err.Kind.String())
}
