package git

import (
	"bytes"
	"fmt"
	"strings"
)

// FormatPatchMbox renders a revision range as one mailbox blob, oldest
// commit first, the format git am consumes
func (c *Client) FormatPatchMbox(revRange string) ([]byte, error) {
	output, err := c.git("format-patch", "--stdout", revRange).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to format patches for %s: %w", revRange, err)
	}
	if len(bytes.TrimSpace(output)) == 0 {
		return nil, fmt.Errorf("no commits in range %s", revRange)
	}
	return output, nil
}

// RevList returns the commit hashes in a range, oldest first
func (c *Client) RevList(revRange string) ([]string, error) {
	output, err := c.git("rev-list", "--reverse", revRange).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list commits in %s: %w", revRange, err)
	}
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// MergeCommits returns the merge commits within a range. Ranges fed to
// format-patch must not contain any.
func (c *Client) MergeCommits(revRange string) ([]string, error) {
	output, err := c.git("rev-list", "--merges", revRange).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list merge commits in %s: %w", revRange, err)
	}
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// PatchID computes the stable patch id of a diff, the content fingerprint
// that survives rebases and line offset shifts
func (c *Client) PatchID(patch []byte) (string, error) {
	cmd := c.git("patch-id", "--stable")
	cmd.Stdin = bytes.NewReader(patch)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to compute patch id: %w", err)
	}
	fields := strings.Fields(string(output))
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}
