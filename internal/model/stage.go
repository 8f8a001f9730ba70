package model

import (
	"fmt"
	"strings"
	"time"
)

// Author identifies a person by name and email
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (a Author) IsZero() bool {
	return a.Name == "" && a.Email == ""
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Tag is a free-form stage marker with an ordinal, e.g. rc=1
type Tag struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

// Label returns the tag's branch-name fragment, e.g. "rc.1"
func (t Tag) Label() string {
	return fmt.Sprintf("%s.%d", t.Name, t.N)
}

// ParseTag parses a "name=N" tag argument
func ParseTag(s string) (Tag, error) {
	name, val, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Tag{}, fmt.Errorf("invalid tag %q, expected name=N", s)
	}
	var n int
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil || n < 0 {
		return Tag{}, fmt.Errorf("invalid tag ordinal in %q", s)
	}
	return Tag{Name: name, N: n}, nil
}

// Stage is an append-only batch of patch sets within a manifest. The patch
// set sequence freezes when the stage is committed; author and tags stay
// amendable afterward.
type Stage struct {
	UUID        string    `json:"uuid"`
	Author      Author    `json:"author"`
	Tags        []Tag     `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	PatchSets   []string  `json:"patch_sets"` // ordered patch set UUIDs, append order only
	Committed   bool      `json:"committed"`
	CommittedAt time.Time `json:"committed_at"`
}

// Label returns the stage's branch-name contribution: its tag labels joined
// with dashes, or a short-UUID fallback for untagged stages.
func (s *Stage) Label() string {
	if len(s.Tags) == 0 {
		return "stage-" + ShortUUID(s.UUID)
	}
	labels := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		labels[i] = t.Label()
	}
	return strings.Join(labels, "-")
}

// ShortUUID returns the first 8 characters of a UUID for display
func ShortUUID(u string) string {
	if len(u) <= 8 {
		return u
	}
	return u[:8]
}
