// Package github is a thin REST client for the pieces of the GitHub API the
// ingester needs: pull request metadata, commit lists, and per-commit
// patches.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"

	acceptJSON  = "application/vnd.github+json"
	acceptPatch = "application/vnd.github.patch"

	commitsPerPage = 100
)

// Client talks to the GitHub REST API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a client authenticating with the given token
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// PullRequest is the slice of PR metadata the ingester consumes
type PullRequest struct {
	Owner     string
	Repo      string
	Number    int
	Title     string
	Body      string
	State     string
	Merged    bool
	MergedAt  *time.Time
	HeadSHA   string
	HeadRepo  string
	BaseRef   string
	URL       string
	UpdatedAt time.Time
}

// Commit is one commit of a pull request
type Commit struct {
	SHA     string
	Title   string
	Author  string
	Email   string
	Date    time.Time
	Parents int
}

// prJSON is the wire structure of a pull request
type prJSON struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	State    string     `json:"state"`
	Merged   bool       `json:"merged"`
	MergedAt *time.Time `json:"merged_at"`
	HTMLURL  string     `json:"html_url"`
	Head     struct {
		SHA  string `json:"sha"`
		Repo struct {
			FullName string `json:"full_name"`
		} `json:"repo"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *prJSON) toPullRequest(owner, repo string) *PullRequest {
	return &PullRequest{
		Owner:     owner,
		Repo:      repo,
		Number:    p.Number,
		Title:     p.Title,
		Body:      p.Body,
		State:     p.State,
		Merged:    p.Merged,
		MergedAt:  p.MergedAt,
		HeadSHA:   p.Head.SHA,
		HeadRepo:  p.Head.Repo.FullName,
		BaseRef:   p.Base.Ref,
		URL:       p.HTMLURL,
		UpdatedAt: p.UpdatedAt,
	}
}

// commitJSON is the wire structure of a PR commit
type commitJSON struct {
	SHA     string `json:"sha"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

func (c *commitJSON) toCommit() Commit {
	title, _, _ := strings.Cut(c.Commit.Message, "\n")
	return Commit{
		SHA:     c.SHA,
		Title:   strings.TrimSpace(title),
		Author:  c.Commit.Author.Name,
		Email:   c.Commit.Author.Email,
		Date:    c.Commit.Author.Date,
		Parents: len(c.Parents),
	}
}

// GetPullRequest fetches pull request metadata
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	body, err := c.get(ctx, path, acceptJSON, &PRNotFoundError{Owner: owner, Repo: repo, Number: number})
	if err != nil {
		return nil, err
	}

	var pr prJSON
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse pull request response: %w", err)
	}
	return pr.toPullRequest(owner, repo), nil
}

// ListCommits fetches the full commit list of a pull request, oldest first
func (c *Client) ListCommits(ctx context.Context, owner, repo string, number int) ([]Commit, error) {
	var commits []Commit
	for page := 1; ; page++ {
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/commits?per_page=%d&page=%d",
			owner, repo, number, commitsPerPage, page)
		body, err := c.get(ctx, path, acceptJSON, &PRNotFoundError{Owner: owner, Repo: repo, Number: number})
		if err != nil {
			return nil, err
		}

		var batch []commitJSON
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("failed to parse commit list response: %w", err)
		}
		for i := range batch {
			commits = append(commits, batch[i].toCommit())
		}
		if len(batch) < commitsPerPage {
			return commits, nil
		}
	}
}

// GetCommitPatch fetches one commit rendered as a mail-formatted patch
func (c *Client) GetCommitPatch(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, sha)
	return c.get(ctx, path, acceptPatch, &PRNotFoundError{Owner: owner, Repo: repo})
}

// get performs an authenticated GET and maps the GitHub error surface onto
// the typed errors in this package. notFound is returned verbatim on 404.
func (c *Client) get(ctx context.Context, path string, accept string, notFound error) ([]byte, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &NetworkError{URL: url, Err: err}
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFound
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode == http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return nil, &RateLimitedError{RetryAfter: retryAfter(resp)}
		}
		return nil, &AuthError{Status: resp.StatusCode}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GitHub API returned HTTP %d for %s: %s", resp.StatusCode, url, string(body))
	}
}

// retryAfter reads the backoff hint from a rate limit response
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Until(time.Unix(unix, 0)); d > 0 {
				return d
			}
		}
	}
	return 0
}
