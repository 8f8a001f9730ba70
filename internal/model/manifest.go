package model

import (
	"strings"
	"time"
)

// Manifest is one buildable iteration of a release: an ordered list of
// stages whose patch sets compose the release branch.
type Manifest struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name,omitempty"` // optional human alias
	Release   string    `json:"release"`
	CreatedAt time.Time `json:"created_at"`
	// Published flips once, when a non-exploratory materialization pushes
	// the manifest's branch.
	Published bool `json:"published"`
	// FromName/FromUUID record the manifest this one was copied from.
	FromName string  `json:"from_name,omitempty"`
	FromUUID string  `json:"from_uuid,omitempty"`
	Stages   []Stage `json:"stages"`
}

// ActiveStage returns the open stage, or nil if every stage is committed.
// Only the last stage can be open: stages commit in order.
func (m *Manifest) ActiveStage() *Stage {
	if len(m.Stages) == 0 {
		return nil
	}
	last := &m.Stages[len(m.Stages)-1]
	if last.Committed {
		return nil
	}
	return last
}

// Stage returns the stage with the given UUID, or nil
func (m *Manifest) Stage(uuid string) *Stage {
	for i := range m.Stages {
		if m.Stages[i].UUID == uuid {
			return &m.Stages[i]
		}
	}
	return nil
}

// EffectiveSequence returns the patch set UUIDs of all stages concatenated
// in stage-creation order, each stage's sets in append order. This is the
// single ordering consumed when a branch is materialized.
func (m *Manifest) EffectiveSequence() []string {
	var seq []string
	for i := range m.Stages {
		seq = append(seq, m.Stages[i].PatchSets...)
	}
	return seq
}

// CommittedSequence is EffectiveSequence restricted to committed stages
func (m *Manifest) CommittedSequence() []string {
	var seq []string
	for i := range m.Stages {
		if !m.Stages[i].Committed {
			continue
		}
		seq = append(seq, m.Stages[i].PatchSets...)
	}
	return seq
}

// Labels returns every stage's label in stage-creation order
func (m *Manifest) Labels() []string {
	labels := make([]string, 0, len(m.Stages))
	for i := range m.Stages {
		if len(m.Stages[i].PatchSets) == 0 && !m.Stages[i].Committed {
			// an empty open stage contributes nothing to the branch name
			continue
		}
		labels = append(labels, m.Stages[i].Label())
	}
	return labels
}

// BranchName composes the deterministic branch name for this manifest under
// the given release: the release name followed by every stage label, e.g.
// ces-v25.03.2-rc.1-rc.2.
func (m *Manifest) BranchName(release string) string {
	parts := append([]string{release}, m.Labels()...)
	return strings.Join(parts, "-")
}

// DisplayName returns the alias when set, the short UUID otherwise
func (m *Manifest) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return ShortUUID(m.UUID)
}

// ManifestSummary is the listing row for a manifest
type ManifestSummary struct {
	UUID      string
	Name      string
	Release   string
	CreatedAt time.Time
	Published bool
	Stages    int
	PatchSets int
}
