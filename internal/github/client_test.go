package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clyso/crt/internal/errkind"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{httpClient: srv.Client(), baseURL: srv.URL, token: "test-token"}
}

func TestGetPullRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/ceph/ceph/pulls/61234", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		fmt.Fprint(w, `{
			"number": 61234,
			"title": "osd: fix scrub scheduling",
			"body": "Fixes a race in the scrub scheduler.",
			"state": "closed",
			"merged": true,
			"merged_at": "2025-03-11T10:11:12Z",
			"html_url": "https://github.com/ceph/ceph/pull/61234",
			"head": {"sha": "abc123", "repo": {"full_name": "contributor/ceph"}},
			"base": {"ref": "main"},
			"updated_at": "2025-03-11T10:11:12Z"
		}`)
	}))
	defer srv.Close()

	pr, err := testClient(srv).GetPullRequest(context.Background(), "ceph", "ceph", 61234)
	require.NoError(t, err)
	assert.Equal(t, 61234, pr.Number)
	assert.Equal(t, "osd: fix scrub scheduling", pr.Title)
	assert.Equal(t, "abc123", pr.HeadSHA)
	assert.Equal(t, "contributor/ceph", pr.HeadRepo)
	assert.Equal(t, "main", pr.BaseRef)
	assert.True(t, pr.Merged)
	require.NotNil(t, pr.MergedAt)
	assert.Equal(t, 2025, pr.MergedAt.Year())
}

func TestGetPullRequest_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv).GetPullRequest(context.Background(), "ceph", "ceph", 999999)
	require.Error(t, err)
	var notFound *PRNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, 999999, notFound.Number)
	assert.Equal(t, errkind.User, errkind.Of(err))
}

func TestGetPullRequest_RateLimited(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		headers    map[string]string
		wantsAfter time.Duration
	}{
		{
			name:       "429 with Retry-After",
			status:     http.StatusTooManyRequests,
			headers:    map[string]string{"Retry-After": "30"},
			wantsAfter: 30 * time.Second,
		},
		{
			name:    "403 with exhausted quota",
			status:  http.StatusForbidden,
			headers: map[string]string{"X-RateLimit-Remaining": "0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := testClient(srv).GetPullRequest(context.Background(), "ceph", "ceph", 1)
			require.Error(t, err)
			var limited *RateLimitedError
			require.True(t, errors.As(err, &limited))
			assert.Equal(t, tt.wantsAfter, limited.RetryAfter)
			assert.Equal(t, errkind.Transient, errkind.Of(err))
		})
	}
}

func TestGetPullRequest_AuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv).GetPullRequest(context.Background(), "ceph", "ceph", 1)
	require.Error(t, err)
	var auth *AuthError
	require.True(t, errors.As(err, &auth))
	assert.Equal(t, errkind.User, errkind.Of(err))
}

func TestGetPullRequest_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := testClient(srv)
	srv.Close()

	_, err := client.GetPullRequest(context.Background(), "ceph", "ceph", 1)
	require.Error(t, err)
	var network *NetworkError
	require.True(t, errors.As(err, &network))
	assert.Equal(t, errkind.Transient, errkind.Of(err))
}

func TestListCommits_Paginates(t *testing.T) {
	page1 := make([]commitJSON, commitsPerPage)
	for i := range page1 {
		page1[i].SHA = fmt.Sprintf("sha%03d", i)
		page1[i].Commit.Message = fmt.Sprintf("commit %d\n\nbody", i)
		page1[i].Commit.Author.Name = "Jane Dev"
		page1[i].Commit.Author.Email = "jane@example.com"
		page1[i].Parents = []struct {
			SHA string `json:"sha"`
		}{{SHA: "parent"}}
	}
	page2 := []commitJSON{{SHA: "shalast"}}
	page2[0].Commit.Message = "last commit"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/ceph/ceph/pulls/61234/commits", r.URL.Path)
		switch r.URL.Query().Get("page") {
		case "1":
			require.NoError(t, json.NewEncoder(w).Encode(page1))
		case "2":
			require.NoError(t, json.NewEncoder(w).Encode(page2))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	commits, err := testClient(srv).ListCommits(context.Background(), "ceph", "ceph", 61234)
	require.NoError(t, err)
	require.Len(t, commits, commitsPerPage+1)
	assert.Equal(t, "sha000", commits[0].SHA)
	assert.Equal(t, "commit 0", commits[0].Title)
	assert.Equal(t, 1, commits[0].Parents)
	assert.Equal(t, "shalast", commits[commitsPerPage].SHA)
}

func TestGetCommitPatch(t *testing.T) {
	const patch = "From abc123 Mon Sep 17 00:00:00 2001\nFrom: Jane Dev <jane@example.com>\nSubject: [PATCH] osd: fix scrub\n\n---\n diff\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/ceph/ceph/commits/abc123", r.URL.Path)
		assert.Equal(t, "application/vnd.github.patch", r.Header.Get("Accept"))
		fmt.Fprint(w, patch)
	}))
	defer srv.Close()

	got, err := testClient(srv).GetCommitPatch(context.Background(), "ceph", "ceph", "abc123")
	require.NoError(t, err)
	assert.Equal(t, patch, string(got))
}
