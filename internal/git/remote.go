package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// RemoteURL returns the fetch URL of a remote, or "" if the remote does not
// exist
func (c *Client) RemoteURL(name string) (string, error) {
	output, err := c.git("remote", "get-url", name).Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", fmt.Errorf("failed to get url of remote %s: %w", name, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// AddRemote adds a remote
func (c *Client) AddRemote(name string, url string) error {
	if err := c.git("remote", "add", name, url).Run(); err != nil {
		return fmt.Errorf("failed to add remote %s: %w", name, err)
	}
	return nil
}

// EnsureRemote makes sure a remote with the given name points at url,
// creating or repointing it as needed
func (c *Client) EnsureRemote(name string, url string) error {
	current, err := c.RemoteURL(name)
	if err != nil {
		return err
	}
	if current == "" {
		return c.AddRemote(name, url)
	}
	if current == url {
		return nil
	}
	if err := c.git("remote", "set-url", name, url).Run(); err != nil {
		return fmt.Errorf("failed to repoint remote %s to %s: %w", name, url, err)
	}
	return nil
}

// Fetch fetches refs from a remote
func (c *Client) Fetch(remote string, refs ...string) error {
	args := append([]string{"fetch", remote}, refs...)
	output, err := c.git(args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to fetch from %s: %w\nOutput: %s", remote, err, string(output))
	}
	return nil
}
