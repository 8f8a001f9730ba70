package ingest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/clyso/crt/internal/github"
	"github.com/clyso/crt/internal/model"
)

type MockAPI struct {
	mock.Mock
}

// GetPullRequest implements PullRequestAPI.
func (m *MockAPI) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	args := m.Called(ctx, owner, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.PullRequest), args.Error(1)
}

// ListCommits implements PullRequestAPI.
func (m *MockAPI) ListCommits(ctx context.Context, owner, repo string, number int) ([]github.Commit, error) {
	args := m.Called(ctx, owner, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]github.Commit), args.Error(1)
}

// GetCommitPatch implements PullRequestAPI.
func (m *MockAPI) GetCommitPatch(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	args := m.Called(ctx, owner, repo, sha)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

// PutPatchSet implements Store.
func (m *MockStore) PutPatchSet(ps *model.PatchSet, mbox []byte) (string, error) {
	args := m.Called(ps, mbox)
	return args.String(0), args.Error(1)
}
