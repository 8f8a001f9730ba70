package git

import (
	"fmt"
)

// AddWorktree creates a worktree at path with a detached checkout of ref.
// The returned client operates inside the new worktree. The worktree holds
// no branch.
func (c *Client) AddWorktree(path string, ref string) (*Client, error) {
	output, err := c.git("worktree", "add", "--detach", path, ref).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to add worktree %s at %s: %w\nOutput: %s", path, ref, err, string(output))
	}
	return &Client{workDir: path}, nil
}

// RemoveWorktree removes a worktree. Force discards uncommitted changes and
// is required while an apply is still in progress there.
func (c *Client) RemoveWorktree(path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	output, err := c.git(args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to remove worktree %s: %w\nOutput: %s", path, err, string(output))
	}
	return nil
}

// PruneWorktrees drops stale worktree bookkeeping after manual deletions
func (c *Client) PruneWorktrees() error {
	if err := c.git("worktree", "prune").Run(); err != nil {
		return fmt.Errorf("failed to prune worktrees: %w", err)
	}
	return nil
}
