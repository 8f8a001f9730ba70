// Package testutil builds throwaway git repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Git runs a git command in dir and returns its trimmed output, failing the
// test on error
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE=2025-03-11T10:00:00Z",
		"GIT_COMMITTER_DATE=2025-03-11T10:00:00Z",
	)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s failed: %s", strings.Join(args, " "), string(output))
	return strings.TrimSpace(string(output))
}

// InitRepo creates a repository with a commit identity configured and an
// initial commit on main
func InitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	Git(t, dir, "init", "--initial-branch=main")
	Git(t, dir, "config", "user.name", "Test Dev")
	Git(t, dir, "config", "user.email", "test@example.com")
	WriteFile(t, dir, "README.md", "upstream\n")
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-m", "Initial commit")
	return dir
}

// InitBareRepo creates an empty bare repository, usable as a push target
func InitBareRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	Git(t, dir, "init", "--bare", "--initial-branch=main")
	return dir
}

// CloneRepo clones src into a fresh directory with an identity configured
func CloneRepo(t *testing.T, src string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "clone")
	Git(t, filepath.Dir(dir), "clone", src, dir)
	Git(t, dir, "config", "user.name", "Test Dev")
	Git(t, dir, "config", "user.email", "test@example.com")
	return dir
}

// WriteFile writes a file under the repository root
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// Commit writes a file and commits it, returning the commit hash
func Commit(t *testing.T, dir, file, content, message string) string {
	t.Helper()
	WriteFile(t, dir, file, content)
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-m", message)
	return Git(t, dir, "rev-parse", "HEAD")
}

// FormatPatch renders a revision range as a mailbox blob
func FormatPatch(t *testing.T, dir, revRange string) []byte {
	t.Helper()
	return []byte(Git(t, dir, "format-patch", "--stdout", revRange) + "\n")
}
