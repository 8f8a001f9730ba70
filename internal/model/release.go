package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// nameRE validates release names and manifest aliases
var nameRE = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidName reports whether name is usable as a release name or manifest alias
func ValidName(name string) bool {
	return nameRE.MatchString(name)
}

// Repo identifies a GitHub repository by owner and name
type Repo struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseRepo parses an "owner/name" repository reference
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

func (r Repo) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// URL returns the HTTPS clone URL for the repository
func (r Repo) URL() string {
	return "https://github.com/" + r.Owner + "/" + r.Name
}

// Release is a named, top-level product iteration with a fixed base and
// destination. The base/destination are set once at creation and shared by
// every manifest under the release.
type Release struct {
	Name        string    `json:"name"`
	BaseRef     string    `json:"base_ref"`
	BaseRepo    Repo      `json:"base_repo"`
	DstRepo     Repo      `json:"dst_repo"`
	FromRelease string    `json:"from_release,omitempty"` // prior release this one derives from
	CreatedAt   time.Time `json:"created_at"`
	Finished    bool      `json:"finished"`
	// FinishedManifest is the UUID of the manifest promoted to final.
	FinishedManifest string `json:"finished_manifest,omitempty"`
}

// TagName returns the name of the annotated tag created when the release is
// finished. Tags are named after the bare release.
func (r *Release) TagName() string {
	return r.Name
}

// Validate checks the fields required at creation time
func (r *Release) Validate() error {
	if !ValidName(r.Name) {
		return fmt.Errorf("invalid release name %q", r.Name)
	}
	if r.BaseRef == "" {
		return fmt.Errorf("release %s: base ref is required", r.Name)
	}
	if r.BaseRepo.IsZero() {
		return fmt.Errorf("release %s: base repository is required", r.Name)
	}
	if r.DstRepo.IsZero() {
		return fmt.Errorf("release %s: destination repository is required", r.Name)
	}
	return nil
}
