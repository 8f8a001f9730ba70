package store

import (
	"errors"
	"fmt"

	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/model"
)

// NotFoundError reports that a referenced object is not in the store
type NotFoundError struct {
	What string // "release", "manifest", "patch set", ...
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.What, e.Ref)
}

func (e *NotFoundError) Kind() errkind.Kind {
	return errkind.User
}

// IsNotFound reports whether err is a store NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AlreadyExistsError reports a create of an object whose name is taken
type AlreadyExistsError struct {
	What string
	Ref  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.What, e.Ref)
}

func (e *AlreadyExistsError) Kind() errkind.Kind {
	return errkind.User
}

// DuplicateContentError reports a put of a PR snapshot that is already
// stored. UUID identifies the existing patch set; callers typically treat
// this as success and reuse it.
type DuplicateContentError struct {
	UUID string
	Key  model.PRKey
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("patch set for %s already stored as %s", e.Key, e.UUID)
}

func (e *DuplicateContentError) Kind() errkind.Kind {
	return errkind.User
}

// IsDuplicate reports whether err is a DuplicateContentError and returns
// the existing UUID when it is
func IsDuplicate(err error) (string, bool) {
	var dup *DuplicateContentError
	if errors.As(err, &dup) {
		return dup.UUID, true
	}
	return "", false
}

// CorruptError reports an inconsistency inside the store itself, such as an
// indexed UUID whose blob is missing
type CorruptError struct {
	Ref    string
	Detail string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("store corrupt: %s: %s", e.Ref, e.Detail)
}

func (e *CorruptError) Kind() errkind.Kind {
	return errkind.Integrity
}
