// Package errkind classifies errors into the stable categories the CLI
// reports through its exit code: user mistakes, patch application conflicts,
// transient upstream failures, and data-integrity violations.
package errkind

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind int

const (
	// Internal is the fallback for unclassified errors.
	Internal Kind = iota
	// User marks input mistakes: bad UUIDs, missing fields, operations
	// against objects in the wrong state.
	User
	// Conflict marks a patch that failed to apply cleanly.
	Conflict
	// Transient marks retryable failures: network errors, rate limiting.
	Transient
	// Integrity marks fatal state violations that must never be auto-fixed:
	// double-finish, duplicate objects, missing referenced patch sets.
	Integrity
)

// String returns the lowercase category name.
func (k Kind) String() string {
	switch k {
	case User:
		return "user"
	case Conflict:
		return "conflict"
	case Transient:
		return "transient"
	case Integrity:
		return "integrity"
	default:
		return "internal"
	}
}

// Kinder is implemented by errors that carry their own category.
type Kinder interface {
	Kind() Kind
}

type userError struct {
	msg string
}

func (e *userError) Error() string {
	return e.msg
}

func (e *userError) Kind() Kind {
	return User
}

// Userf builds a User-kind error from a format string, for input validation
// that has no structured error type.
func Userf(format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}

// Of walks the error chain and returns the first category found,
// or Internal if no error in the chain implements Kinder.
func Of(err error) Kind {
	var k Kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Internal
}

// Exit codes, one per category. Stable: scripts depend on them.
const (
	ExitOK        = 0
	ExitInternal  = 1
	ExitUser      = 2
	ExitConflict  = 3
	ExitTransient = 4
	ExitIntegrity = 5
)

// ExitCode maps an error to the process exit code for its category.
// A nil error maps to ExitOK.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch Of(err) {
	case User:
		return ExitUser
	case Conflict:
		return ExitConflict
	case Transient:
		return ExitTransient
	case Integrity:
		return ExitIntegrity
	default:
		return ExitInternal
	}
}
