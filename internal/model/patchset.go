package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PatchSetKind discriminates the patch set variants
type PatchSetKind string

const (
	// PatchSetGH is derived from a GitHub pull request.
	PatchSetGH PatchSetKind = "gh"
	// PatchSetCustom is assembled by the user from an arbitrary repository.
	PatchSetCustom PatchSetKind = "custom"
	// PatchSetSingle is the legacy one-commit variant. Read-only: existing
	// blobs load and apply, no operation writes new ones.
	PatchSetSingle PatchSetKind = "single"
)

// PRKey identifies one revision of a tracked pull request
type PRKey struct {
	Owner   string
	Repo    string
	Number  int
	HeadSHA string
}

func (k PRKey) String() string {
	return fmt.Sprintf("%s/%s#%d@%s", k.Owner, k.Repo, k.Number, k.HeadSHA)
}

// PatchSet is one or more patches treated as an atomic unit. Immutable once
// stored; manifests reference patch sets by UUID and never copy content.
type PatchSet struct {
	UUID      string       `json:"uuid"`
	Kind      PatchSetKind `json:"kind"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
	Patches   []Patch      `json:"patches"`

	// Pull request provenance, set when Kind is PatchSetGH.
	Owner        string     `json:"owner,omitempty"`
	Repo         string     `json:"repo,omitempty"`
	RepoURL      string     `json:"repo_url,omitempty"`
	PRNumber     int        `json:"pr_number,omitempty"`
	HeadSHA      string     `json:"head_sha,omitempty"`
	Merged       bool       `json:"merged,omitempty"`
	MergeDate    *time.Time `json:"merge_date,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
	TargetBranch string     `json:"target_branch,omitempty"`

	// Source release for custom sets, used in the canonical title prefix.
	ReleaseName string `json:"release_name,omitempty"`
}

// Key returns the identity key for gh patch sets. Re-ingesting an unmodified
// pull request maps to the same key and therefore the same UUID.
func (p *PatchSet) Key() PRKey {
	return PRKey{Owner: p.Owner, Repo: p.Repo, Number: p.PRNumber, HeadSHA: p.HeadSHA}
}

// PRRef returns the short pull request reference, e.g. ceph/ceph#12345
func (p *PatchSet) PRRef() string {
	return fmt.Sprintf("%s/%s#%d", p.Owner, p.Repo, p.PRNumber)
}

var (
	titleDashRE  = regexp.MustCompile(`[\s:/\]\[\(\)]`)
	titleStripRE = regexp.MustCompile("['\",.+\\<>~^$@!?%&=;`]")
)

// SanitizeTitle lowercases a patch title and reduces it to the characters
// allowed in tree entry names
func SanitizeTitle(title string) string {
	return titleStripRE.ReplaceAllString(titleDashRE.ReplaceAllString(strings.ToLower(title), "-"), "")
}

// CanonicalTitle returns the patch set's tree entry name: the sanitized
// title behind a provenance prefix identifying where the set came from.
func (p *PatchSet) CanonicalTitle() string {
	title := SanitizeTitle(p.Title)
	switch p.Kind {
	case PatchSetGH:
		return fmt.Sprintf("[%s\\%s#%d]-%s", p.Owner, p.Repo, p.PRNumber, title)
	case PatchSetCustom:
		prefix := p.ReleaseName
		if prefix == "" {
			prefix = "generic"
		}
		return fmt.Sprintf("[%s]-%s", prefix, title)
	default:
		return title
	}
}

// PatchSetSummary is the listing row for a patch set
type PatchSetSummary struct {
	UUID      string
	Kind      PatchSetKind
	Title     string
	CreatedAt time.Time
	Patches   int
	PRRef     string
}
