package engine

import (
	"fmt"

	"github.com/clyso/crt/internal/errkind"
)

// NoActiveReleaseError reports an operation against a release that does not
// exist or is already finished
type NoActiveReleaseError struct {
	Release  string
	Finished bool
}

func (e *NoActiveReleaseError) Error() string {
	if e.Finished {
		return fmt.Sprintf("release %s is finished, no further manifests can be created", e.Release)
	}
	return fmt.Sprintf("no active release %s", e.Release)
}

func (e *NoActiveReleaseError) Kind() errkind.Kind {
	return errkind.User
}

// AmbiguousBaseError reports a base manifest that belongs to a different
// release than the one being targeted
type AmbiguousBaseError struct {
	Base        string
	Release     string
	BaseRelease string
}

func (e *AmbiguousBaseError) Error() string {
	return fmt.Sprintf("base manifest %s belongs to release %s, not %s", e.Base, e.BaseRelease, e.Release)
}

func (e *AmbiguousBaseError) Kind() errkind.Kind {
	return errkind.User
}

// StageAlreadyOpenError reports an openStage on a manifest that already has
// an open stage
type StageAlreadyOpenError struct {
	Manifest string
	Stage    string
}

func (e *StageAlreadyOpenError) Error() string {
	return fmt.Sprintf("manifest %s already has open stage %s", e.Manifest, e.Stage)
}

func (e *StageAlreadyOpenError) Kind() errkind.Kind {
	return errkind.User
}

// NoOpenStageError reports a stage operation on a manifest whose stages are
// all committed
type NoOpenStageError struct {
	Manifest string
}

func (e *NoOpenStageError) Error() string {
	return fmt.Sprintf("manifest %s has no open stage", e.Manifest)
}

func (e *NoOpenStageError) Kind() errkind.Kind {
	return errkind.User
}

// StageCommittedError reports a mutation of a committed stage
type StageCommittedError struct {
	Stage string
}

func (e *StageCommittedError) Error() string {
	return fmt.Sprintf("stage %s is committed and frozen", e.Stage)
}

func (e *StageCommittedError) Kind() errkind.Kind {
	return errkind.User
}

// UnknownPatchSetError reports a patch set UUID that is not in the store
type UnknownPatchSetError struct {
	UUID string
}

func (e *UnknownPatchSetError) Error() string {
	return fmt.Sprintf("unknown patch set %s", e.UUID)
}

func (e *UnknownPatchSetError) Kind() errkind.Kind {
	return errkind.User
}

// EmptyStageError reports a commit of a stage with no patch sets
type EmptyStageError struct {
	Stage string
}

func (e *EmptyStageError) Error() string {
	return fmt.Sprintf("stage %s has no patch sets, nothing to commit", e.Stage)
}

func (e *EmptyStageError) Kind() errkind.Kind {
	return errkind.User
}

// AlreadyFinishedError reports a second finish of a release. Releases get
// exactly one terminal tag; a double finish is never resolved silently.
type AlreadyFinishedError struct {
	Release  string
	Manifest string
}

func (e *AlreadyFinishedError) Error() string {
	return fmt.Sprintf("release %s is already finished with manifest %s", e.Release, e.Manifest)
}

func (e *AlreadyFinishedError) Kind() errkind.Kind {
	return errkind.Integrity
}
