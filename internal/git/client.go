package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// Client provides git operations for one repository checkout. Every command
// runs inside the checkout's directory, so multiple clients can drive
// different worktrees of the same repository concurrently.
type Client struct {
	workDir string
}

// NewClient creates a git client for the repository containing dir
func NewClient(dir string) (*Client, error) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s is not inside a git repository: %w", dir, err)
	}
	return &Client{workDir: strings.TrimSpace(string(output))}, nil
}

// WorkDir returns the directory commands run in
func (c *Client) WorkDir() string {
	return c.workDir
}

// git builds a git command rooted at the client's directory
func (c *Client) git(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = c.workDir
	return cmd
}

// CurrentBranch returns the name of the checked-out branch
func (c *Client) CurrentBranch() (string, error) {
	output, err := c.git("rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CommitHash returns the commit hash for a given ref
func (c *Client) CommitHash(ref string) (string, error) {
	output, err := c.git("rev-parse", ref).Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// BranchExists checks if a local branch exists
func (c *Client) BranchExists(name string) bool {
	return c.git("rev-parse", "--verify", "refs/heads/"+name).Run() == nil
}

// TagExists checks if a tag exists
func (c *Client) TagExists(name string) bool {
	return c.git("rev-parse", "--verify", "refs/tags/"+name).Run() == nil
}

// HasUncommittedChanges checks if the working directory is dirty
func (c *Client) HasUncommittedChanges() (bool, error) {
	output, err := c.git("status", "--porcelain").Output()
	if err != nil {
		return false, fmt.Errorf("failed to check git status: %w", err)
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// ConfigGet returns a git config value, or "" when the key is unset
func (c *Client) ConfigGet(key string) (string, error) {
	output, err := c.git("config", "--get", key).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("failed to read git config %s: %w", key, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// UserIdentity returns the configured committer name and email. Both must be
// set before patches can be applied.
func (c *Client) UserIdentity() (name string, email string, err error) {
	name, err = c.ConfigGet("user.name")
	if err != nil {
		return "", "", err
	}
	email, err = c.ConfigGet("user.email")
	if err != nil {
		return "", "", err
	}
	if name == "" || email == "" {
		return "", "", fmt.Errorf("git user.name and user.email must be configured in %s", c.workDir)
	}
	return name, email, nil
}
