package fault

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// Kind categorizes errors for handling strategy
type Kind int

const (
	KindUnknown     Kind = iota
	KindOperational      // The operation ran and failed
	KindUnavailable      // The mechanism is missing on this host
	KindTransient        // Temporary, retry possible
	KindMalformed        // Input did not have the expected shape
	KindPermanent        // Anything else, no retry
)

func (k Kind) String() string {
	switch k {
	case KindOperational:
		return "operational"
	case KindUnavailable:
		return "unavailable"
	case KindTransient:
		return "transient"
	case KindMalformed:
		return "malformed"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error wraps errors with the operation that produced them and a Kind
type Error struct {
	Kind    Kind
	Op      string // "hibernate", "audit_query", "signal", ...
	Message string
	Err     error
}

// Error implements error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap implements error unwrapping
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new classified error
func New(kind Kind, op, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Unavailable is shorthand for New(KindUnavailable, ...)
func Unavailable(op, message string, err error) *Error {
	return New(KindUnavailable, op, message, err)
}

// Operational is shorthand for New(KindOperational, ...)
func Operational(op, message string, err error) *Error {
	return New(KindOperational, op, message, err)
}

// KindOf returns the Kind carried by err, or classifies it when err is not
// a *Error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Classify(err)
}

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// Classify determines error kind from well-known error values first, then
// from the error text.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, syscall.ENOENT):
		return KindUnavailable
	case errors.Is(err, syscall.EAGAIN), errors.Is(err, syscall.EINTR):
		return KindTransient
	case errors.Is(err, context.DeadlineExceeded):
		return KindOperational
	}

	errStr := strings.ToLower(err.Error())

	transientPatterns := []string{
		"resource temporarily unavailable",
		"interrupted system call",
		"temporary failure",
		"timeout",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return KindTransient
		}
	}

	unavailablePatterns := []string{
		"executable file not found",
		"no such file or directory",
		"not supported",
	}
	for _, pattern := range unavailablePatterns {
		if strings.Contains(errStr, pattern) {
			return KindUnavailable
		}
	}

	return KindPermanent
}
