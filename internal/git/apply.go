package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AmError reports a failed mailbox application. Output carries the tool
// output, which names the patch number that failed.
type AmError struct {
	Output string
	Err    error
}

func (e *AmError) Error() string {
	return fmt.Sprintf("git am failed: %v\n%s", e.Err, e.Output)
}

func (e *AmError) Unwrap() error {
	return e.Err
}

// Am applies a mailbox file with git am. On failure the apply is left in
// progress for inspection; call AmAbort to unwind it.
func (c *Client) Am(mboxPath string) error {
	output, err := c.git("am", mboxPath).CombinedOutput()
	if err != nil {
		return &AmError{Output: string(output), Err: err}
	}
	return nil
}

// AmAbort unwinds an in-progress apply and restores the pre-am state
func (c *Client) AmAbort() error {
	output, err := c.git("am", "--abort").CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to abort git am: %w\nOutput: %s", err, string(output))
	}
	return nil
}

// AmInProgress checks whether an apply is mid-flight in this checkout
func (c *Client) AmInProgress() bool {
	output, err := c.git("rev-parse", "--git-path", "rebase-apply").Output()
	if err != nil {
		return false
	}
	path := strings.TrimSpace(string(output))
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.workDir, path)
	}
	_, err = os.Stat(path)
	return err == nil
}
