package github

import (
	"fmt"
	"os/exec"
	"strings"
)

// ResolveToken picks the API token: an explicit flag value wins, then the
// configured token, then whatever the gh CLI is logged in with
func ResolveToken(explicit, configured string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if configured != "" {
		return configured, nil
	}
	token, err := ghAuthToken()
	if err != nil {
		return "", fmt.Errorf("no GitHub token: pass --token, set CRT_GITHUB_TOKEN, or log in with gh auth login")
	}
	return token, nil
}

// ghAuthToken asks the gh CLI for its stored token
func ghAuthToken() (string, error) {
	output, err := exec.Command("gh", "auth", "token").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("gh CLI error: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("failed to execute gh: %w", err)
	}
	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", fmt.Errorf("gh returned an empty token")
	}
	return token, nil
}
