package mirror

import (
	"fmt"
	"strings"

	"github.com/clyso/crt/internal/errkind"
)

// RemoteConflictError is returned when a preconditioned put is rejected:
// the remote copy changed since the last sync and pushing would overwrite
// someone else's update.
type RemoteConflictError struct {
	Key string
}

func (e *RemoteConflictError) Error() string {
	return fmt.Sprintf("remote object %s changed since last sync, run a sync first", e.Key)
}

func (e *RemoteConflictError) Kind() errkind.Kind {
	return errkind.Integrity
}

// TransferError wraps a failed S3 call
type TransferError struct {
	Op  string
	Key string
	Err error
}

func (e *TransferError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("mirror %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("mirror %s of %s failed: %v", e.Op, e.Key, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func (e *TransferError) Kind() errkind.Kind {
	return errkind.Transient
}

// isNotFound matches the SDK's missing-object responses without depending
// on the wrapped error chain shape
func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey")
}

func isPreconditionFailed(err error) bool {
	return strings.Contains(err.Error(), "PreconditionFailed")
}

// classify turns an S3 call failure into the mirror error surface
func classify(op, key string, err error) error {
	if isPreconditionFailed(err) {
		return &RemoteConflictError{Key: key}
	}
	return &TransferError{Op: op, Key: key, Err: err}
}
