// Package ingest turns upstream pull requests into stored patch sets.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/github"
	"github.com/clyso/crt/internal/mbox"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/store"
)

// PullRequestAPI is the slice of the GitHub client the ingester consumes
type PullRequestAPI interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListCommits(ctx context.Context, owner, repo string, number int) ([]github.Commit, error)
	GetCommitPatch(ctx context.Context, owner, repo, sha string) ([]byte, error)
}

// Store is where finished patch sets land
type Store interface {
	PutPatchSet(ps *model.PatchSet, mbox []byte) (string, error)
}

// Ingester fetches a pull request and stores it as a patch set
type Ingester struct {
	api   PullRequestAPI
	store Store
}

func New(api PullRequestAPI, s Store) *Ingester {
	return &Ingester{api: api, store: s}
}

// Result reports one ingestion. Duplicate means the snapshot was already
// stored and UUID names the existing patch set.
type Result struct {
	UUID      string
	PatchSet  *model.PatchSet
	Duplicate bool
}

// MergeCommitError reports a pull request whose history contains merge
// commits, which cannot be replayed as a linear patch series
type MergeCommitError struct {
	PR  string
	SHA string
}

func (e *MergeCommitError) Error() string {
	return fmt.Sprintf("%s contains merge commit %s, only linear histories can be ingested", e.PR, model.ShortUUID(e.SHA))
}

func (e *MergeCommitError) Kind() errkind.Kind {
	return errkind.User
}

// Ingest fetches a pull request, renders its commits into one mailbox blob,
// and stores the result. Re-ingesting an unchanged pull request is
// idempotent: the identity index maps the head SHA back to the existing
// UUID. The store is only written once the whole blob is assembled, so a
// failure mid-fetch leaves no partial state.
func (i *Ingester) Ingest(ctx context.Context, repo model.Repo, number int) (*Result, error) {
	pr, err := i.api.GetPullRequest(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, err
	}

	commits, err := i.api.ListCommits(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("%s#%d has no commits", repo, number)
	}
	for _, c := range commits {
		if c.Parents > 1 {
			return nil, &MergeCommitError{PR: fmt.Sprintf("%s#%d", repo, number), SHA: c.SHA}
		}
	}

	var blob bytes.Buffer
	for _, c := range commits {
		patch, err := i.api.GetCommitPatch(ctx, repo.Owner, repo.Name, c.SHA)
		if err != nil {
			return nil, err
		}
		blob.Write(patch)
		if !bytes.HasSuffix(patch, []byte("\n")) {
			blob.WriteByte('\n')
		}
	}

	infos, err := mbox.ParseAll(blob.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to parse patches of %s#%d: %w", repo, number, err)
	}
	if len(infos) != len(commits) {
		return nil, fmt.Errorf("%s#%d rendered %d patches for %d commits", repo, number, len(infos), len(commits))
	}

	patches := make([]model.Patch, len(commits))
	for idx, info := range infos {
		patches[idx] = model.Patch{
			SHA:              commits[idx].SHA,
			Author:           info.Author,
			AuthorDate:       info.Date,
			Title:            info.Title,
			Body:             info.Body,
			SignedOffBy:      info.SignedOffBy,
			CherryPickedFrom: info.CherryPickedFrom,
			Fixes:            info.Fixes,
			SourceRepo:       repo.String(),
		}
	}

	ps := &model.PatchSet{
		Kind:         model.PatchSetGH,
		Title:        pr.Title,
		Patches:      patches,
		Owner:        repo.Owner,
		Repo:         repo.Name,
		RepoURL:      repo.URL(),
		PRNumber:     pr.Number,
		HeadSHA:      pr.HeadSHA,
		Merged:       pr.Merged,
		MergeDate:    pr.MergedAt,
		UpdatedAt:    pr.UpdatedAt,
		TargetBranch: pr.BaseRef,
	}

	uuid, err := i.store.PutPatchSet(ps, blob.Bytes())
	if existing, ok := store.IsDuplicate(err); ok {
		return &Result{UUID: existing, PatchSet: ps, Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{UUID: uuid, PatchSet: ps}, nil
}

var prURLRE = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)/pull/(\d+)`)

// ParsePRRef parses a pull request reference, either owner/repo#number or a
// full pull request URL
func ParsePRRef(ref string) (model.Repo, int, error) {
	if m := prURLRE.FindStringSubmatch(ref); m != nil {
		number, err := strconv.Atoi(m[3])
		if err != nil {
			return model.Repo{}, 0, fmt.Errorf("invalid pull request number in %q", ref)
		}
		return model.Repo{Owner: m[1], Name: m[2]}, number, nil
	}

	repoPart, numberPart, ok := strings.Cut(ref, "#")
	if !ok {
		return model.Repo{}, 0, fmt.Errorf("invalid pull request reference %q, expected owner/repo#number or a PR URL", ref)
	}
	repo, err := model.ParseRepo(repoPart)
	if err != nil {
		return model.Repo{}, 0, err
	}
	number, err := strconv.Atoi(numberPart)
	if err != nil || number <= 0 {
		return model.Repo{}, 0, fmt.Errorf("invalid pull request number in %q", ref)
	}
	return repo, number, nil
}
