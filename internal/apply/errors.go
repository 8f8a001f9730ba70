package apply

import (
	"fmt"

	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/model"
)

// EmptyManifestError is returned when a manifest with no patch sets is
// materialized.
type EmptyManifestError struct {
	Manifest string
}

func (e *EmptyManifestError) Error() string {
	return fmt.Sprintf("manifest %s has no patch sets to apply", e.Manifest)
}

func (e *EmptyManifestError) Kind() errkind.Kind {
	return errkind.User
}

// BaseRefError is returned when the release base ref cannot be resolved in
// the work repository after fetching the base remote.
type BaseRefError struct {
	Ref  string
	Repo model.Repo
}

func (e *BaseRefError) Error() string {
	return fmt.Sprintf("base ref %q not found after fetching %s", e.Ref, e.Repo)
}

func (e *BaseRefError) Kind() errkind.Kind {
	return errkind.User
}

// ConflictError is returned when a patch set does not apply onto the branch
// built so far. PatchIndex is the zero-based position of the failing patch
// within the patch set's mailbox, or -1 when git did not report one. Unless
// cleanup was requested the conflicted worktree is kept for inspection and
// Worktree points at it.
type ConflictError struct {
	PatchSetUUID  string
	PatchSetTitle string
	PatchIndex    int
	Output        string
	Branch        string
	Worktree      string
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("patch set %q (%s) does not apply on %s", e.PatchSetTitle, model.ShortUUID(e.PatchSetUUID), e.Branch)
	if e.PatchIndex >= 0 {
		msg = fmt.Sprintf("patch %d of set %q (%s) does not apply on %s", e.PatchIndex+1, e.PatchSetTitle, model.ShortUUID(e.PatchSetUUID), e.Branch)
	}
	if e.Worktree != "" {
		msg += fmt.Sprintf(", worktree kept at %s", e.Worktree)
	}
	return msg
}

func (e *ConflictError) Kind() errkind.Kind {
	return errkind.Conflict
}
