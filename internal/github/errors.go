package github

import (
	"fmt"
	"time"

	"github.com/clyso/crt/internal/errkind"
)

// PRNotFoundError reports a pull request that does not exist in the
// repository
type PRNotFoundError struct {
	Owner  string
	Repo   string
	Number int
}

func (e *PRNotFoundError) Error() string {
	return fmt.Sprintf("pull request %s/%s#%d not found", e.Owner, e.Repo, e.Number)
}

func (e *PRNotFoundError) Kind() errkind.Kind {
	return errkind.User
}

// RateLimitedError reports an API rate limit rejection. Retryable after the
// reported delay.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("GitHub API rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "GitHub API rate limit exceeded"
}

func (e *RateLimitedError) Kind() errkind.Kind {
	return errkind.Transient
}

// NetworkError reports a transport-level failure talking to the API
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Kind() errkind.Kind {
	return errkind.Transient
}

// AuthError reports rejected credentials
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("GitHub API rejected the token (HTTP %d), check your credentials", e.Status)
}

func (e *AuthError) Kind() errkind.Kind {
	return errkind.User
}
