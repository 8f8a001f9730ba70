// Package apply materializes manifests as git branches in the work
// repository. Every materialization starts from the release base ref in a
// throwaway worktree and applies the manifest's patch sets in order, so the
// same manifest always yields the same branch content.
package apply

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/clyso/crt/internal/common"
	"github.com/clyso/crt/internal/git"
	"github.com/clyso/crt/internal/mbox"
	"github.com/clyso/crt/internal/model"
)

// Remotes managed in the work repository. Their URLs are reconciled on every
// materialization, so releases with different repositories can share one
// work checkout.
const (
	BaseRemote = "crt-base"
	DstRemote  = "crt-dst"
)

// Store is the subset of the patch store the materializer reads from.
type Store interface {
	GetPatchSet(uuid string) (*model.PatchSet, error)
	GetPatchBlob(uuid string) ([]byte, error)
}

// Materializer turns manifests into branches of the work repository.
type Materializer struct {
	store Store
	repo  *git.Client
}

// New creates a materializer using repo as the work repository
func New(store Store, repo *git.Client) *Materializer {
	return &Materializer{store: store, repo: repo}
}

// Options control a single materialization.
type Options struct {
	// Exploratory appends a unique suffix to the branch name so the run
	// never disturbs the deterministic branch.
	Exploratory bool

	// Push pushes the resulting branch to the destination remote.
	Push bool

	// Cleanup discards the worktree and branch when application fails
	// instead of keeping them for inspection.
	Cleanup bool

	// Sign creates signed tags when finishing.
	Sign bool

	// BaseURL and DstURL override the remote URLs derived from the release
	// repositories, e.g. to use ssh instead of https.
	BaseURL string
	DstURL  string
}

// BranchResult describes a finished materialization.
type BranchResult struct {
	Branch      string
	Commit      string
	PatchSets   int
	Patches     int
	Pushed      bool
	Exploratory bool
	Tag         string
}

// Materialize builds the branch for manifest under release. Patches apply on
// a detached checkout; the branch only moves once the whole sequence has
// applied, so an existing branch survives a failed run intact. On a patch
// conflict a ConflictError is returned and, unless opts.Cleanup is set, the
// conflicted worktree is left in place.
func (m *Materializer) Materialize(release *model.Release, manifest *model.Manifest, opts Options) (*BranchResult, error) {
	sequence := manifest.EffectiveSequence()
	if len(sequence) == 0 {
		return nil, &EmptyManifestError{Manifest: manifest.DisplayName()}
	}
	if _, _, err := m.repo.UserIdentity(); err != nil {
		return nil, err
	}
	if err := m.syncRemotes(release, opts); err != nil {
		return nil, err
	}
	base, err := m.resolveBase(release)
	if err != nil {
		return nil, err
	}

	branch := manifest.BranchName(release.Name)
	if opts.Exploratory {
		branch = fmt.Sprintf("%s-%s-exec-%s", branch, common.GenerateGitUID(), common.ExecTimestamp(time.Now()))
	}

	// drop bookkeeping of conflict worktrees the operator deleted by hand
	if err := m.repo.PruneWorktrees(); err != nil {
		return nil, err
	}
	wtPath, err := os.MkdirTemp("", "crt-worktree-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create worktree directory: %w", err)
	}
	wt, err := m.repo.AddWorktree(wtPath, base)
	if err != nil {
		os.RemoveAll(wtPath)
		return nil, err
	}

	result := &BranchResult{Branch: branch, Exploratory: opts.Exploratory}
	for _, uuid := range sequence {
		ps, err := m.store.GetPatchSet(uuid)
		if err != nil {
			m.discard(wt, wtPath)
			return nil, err
		}
		blob, err := m.store.GetPatchBlob(uuid)
		if err != nil {
			m.discard(wt, wtPath)
			return nil, err
		}
		count := len(ps.Patches)
		if count == 0 {
			if count, err = mbox.Count(blob); err != nil {
				m.discard(wt, wtPath)
				return nil, err
			}
		}
		if err := applyBlob(wt, wtPath, blob); err != nil {
			var amErr *git.AmError
			if errors.As(err, &amErr) {
				conflict := &ConflictError{
					PatchSetUUID:  uuid,
					PatchSetTitle: ps.Title,
					PatchIndex:    failedPatchIndex(amErr.Output),
					Output:        amErr.Output,
					Branch:        branch,
				}
				if opts.Cleanup {
					m.discard(wt, wtPath)
				} else {
					conflict.Worktree = wtPath
				}
				return nil, conflict
			}
			m.discard(wt, wtPath)
			return nil, err
		}
		result.PatchSets++
		result.Patches += count
	}

	commit, err := wt.CommitHash("HEAD")
	if err != nil {
		m.discard(wt, wtPath)
		return nil, err
	}
	if err := m.repo.RemoveWorktree(wtPath, true); err != nil {
		return nil, err
	}
	os.RemoveAll(wtPath)

	if err := m.repo.SetBranch(branch, commit); err != nil {
		return nil, err
	}
	result.Commit = commit

	if opts.Push {
		if err := m.repo.Push(DstRemote, branch, !opts.Exploratory); err != nil {
			return nil, err
		}
		result.Pushed = true
	}
	return result, nil
}

// Finish materializes the deterministic branch, pushes it and tags the
// resulting commit with the release tag. A local tag left behind by an
// earlier finish that never reached the destination is replaced; a tag that
// did reach the destination makes the push fail, which is the signal that
// the release was already finished elsewhere.
func (m *Materializer) Finish(release *model.Release, manifest *model.Manifest, opts Options) (*BranchResult, error) {
	opts.Exploratory = false
	opts.Push = true
	result, err := m.Materialize(release, manifest, opts)
	if err != nil {
		return nil, err
	}

	tag := release.TagName()
	if m.repo.TagExists(tag) {
		at, err := m.repo.CommitHash(tag + "^{commit}")
		if err != nil {
			return nil, err
		}
		if at != result.Commit {
			if err := m.repo.DeleteTag(tag); err != nil {
				return nil, err
			}
		}
	}
	if !m.repo.TagExists(tag) {
		message := fmt.Sprintf("%s (manifest %s)", release.Name, manifest.UUID)
		if err := m.repo.TagAnnotated(tag, message, result.Commit, opts.Sign); err != nil {
			return nil, err
		}
	}
	if err := m.repo.PushTag(DstRemote, tag); err != nil {
		return nil, err
	}
	result.Tag = tag
	return result, nil
}

func (m *Materializer) syncRemotes(release *model.Release, opts Options) error {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = release.BaseRepo.URL()
	}
	dstURL := opts.DstURL
	if dstURL == "" {
		dstURL = release.DstRepo.URL()
	}
	if err := m.repo.EnsureRemote(BaseRemote, baseURL); err != nil {
		return err
	}
	if err := m.repo.EnsureRemote(DstRemote, dstURL); err != nil {
		return err
	}
	return m.repo.Fetch(BaseRemote, "--tags")
}

// resolveBase resolves the release base ref to a commit, trying the local
// name first and the base remote's copy second.
func (m *Materializer) resolveBase(release *model.Release) (string, error) {
	if hash, err := m.repo.CommitHash(release.BaseRef + "^{commit}"); err == nil {
		return hash, nil
	}
	if hash, err := m.repo.CommitHash(BaseRemote + "/" + release.BaseRef + "^{commit}"); err == nil {
		return hash, nil
	}
	return "", &BaseRefError{Ref: release.BaseRef, Repo: release.BaseRepo}
}

// applyBlob feeds one patch set mailbox through git am in the worktree
func applyBlob(wt *git.Client, wtPath string, blob []byte) error {
	file, err := os.CreateTemp(wtPath, ".crt-*.mbox")
	if err != nil {
		return fmt.Errorf("failed to stage patch set: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)
	if _, err := file.Write(blob); err != nil {
		file.Close()
		return fmt.Errorf("failed to stage patch set: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to stage patch set: %w", err)
	}
	return wt.Am(path)
}

// discard abandons a failed materialization and removes its worktree. Best
// effort: a half-removed worktree must not mask the original failure.
func (m *Materializer) discard(wt *git.Client, wtPath string) {
	if wt.AmInProgress() {
		_ = wt.AmAbort()
	}
	_ = m.repo.RemoveWorktree(wtPath, true)
	_ = os.RemoveAll(wtPath)
}

var patchFailedRE = regexp.MustCompile(`Patch failed at (\d+)`)

// failedPatchIndex extracts the zero-based index of the failing patch from
// git am output, -1 when absent
func failedPatchIndex(output string) int {
	match := patchFailedRE.FindStringSubmatch(output)
	if match == nil {
		return -1
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 1 {
		return -1
	}
	return n - 1
}
