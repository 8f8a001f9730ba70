package git

import (
	"fmt"
)

// SetBranch points a branch at the given commit, creating it when absent.
// Fails if the branch is checked out somewhere.
func (c *Client) SetBranch(name string, ref string) error {
	if err := c.git("branch", "-f", name, ref).Run(); err != nil {
		return fmt.Errorf("failed to set branch %s to %s: %w", name, ref, err)
	}
	return nil
}

// Push pushes a branch to a remote
func (c *Client) Push(remote string, branch string, force bool) error {
	args := []string{"push", remote, branch}
	if force {
		args = append(args, "--force")
	}
	output, err := c.git(args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to push branch %s to %s: %w\nOutput: %s", branch, remote, err, string(output))
	}
	return nil
}

// TagAnnotated creates an annotated tag at ref. Signed tags require a
// configured signing key.
func (c *Client) TagAnnotated(name string, message string, ref string, sign bool) error {
	flag := "-a"
	if sign {
		flag = "-s"
	}
	if err := c.git("tag", flag, "-m", message, name, ref).Run(); err != nil {
		return fmt.Errorf("failed to create tag %s at %s: %w", name, ref, err)
	}
	return nil
}

// DeleteTag deletes a local tag
func (c *Client) DeleteTag(name string) error {
	if err := c.git("tag", "-d", name).Run(); err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", name, err)
	}
	return nil
}

// PushTag pushes a tag to a remote
func (c *Client) PushTag(remote string, tag string) error {
	output, err := c.git("push", remote, "refs/tags/"+tag).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to push tag %s to %s: %w\nOutput: %s", tag, remote, err, string(output))
	}
	return nil
}
