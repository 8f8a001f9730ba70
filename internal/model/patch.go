package model

import "time"

// Patch is one commit inside a patch set
type Patch struct {
	SHA        string    `json:"sha"`
	Author     Author    `json:"author"`
	AuthorDate time.Time `json:"author_date"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	// Trailers parsed from the commit message body.
	SignedOffBy      []Author `json:"signed_off_by,omitempty"`
	CherryPickedFrom []string `json:"cherry_picked_from,omitempty"`
	Fixes            []string `json:"fixes,omitempty"`
	// SourceRepo hints at the repository the commit came from.
	SourceRepo string `json:"source_repo,omitempty"`
	// PatchID is git's stable patch fingerprint, when known.
	PatchID string `json:"patch_id,omitempty"`
}
