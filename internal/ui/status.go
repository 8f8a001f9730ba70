package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clyso/crt/internal/model"
)

// Status icons
const (
	IconOpen      = "●"
	IconDraft     = "◐"
	IconCommitted = "◆"
	IconClosed    = "○"
	IconLocal     = "◯"
)

// Status represents a release, stage or patch set state with rendering
// capabilities
type Status struct {
	Icon  string
	Label string
	State string
	Style lipgloss.Style
}

// GetStatus returns a Status object for the given state
func GetStatus(state string) Status {
	switch state {
	case "open":
		return Status{
			Icon:  IconOpen,
			Label: "Open",
			State: state,
			Style: StatusOpenStyle,
		}
	case "draft":
		return Status{
			Icon:  IconDraft,
			Label: "Draft",
			State: state,
			Style: StatusDraftStyle,
		}
	case "committed":
		return Status{
			Icon:  IconCommitted,
			Label: "Committed",
			State: state,
			Style: StatusCommittedStyle,
		}
	case "published":
		return Status{
			Icon:  IconCommitted,
			Label: "Published",
			State: state,
			Style: StatusPublishedStyle,
		}
	case "merged":
		return Status{
			Icon:  IconCommitted,
			Label: "Merged",
			State: state,
			Style: StatusCommittedStyle,
		}
	case "finished":
		return Status{
			Icon:  IconCommitted,
			Label: "Finished",
			State: state,
			Style: StatusCommittedStyle,
		}
	case "custom":
		return Status{
			Icon:  IconLocal,
			Label: "Custom",
			State: state,
			Style: StatusLocalStyle,
		}
	case "legacy":
		return Status{
			Icon:  IconClosed,
			Label: "Legacy",
			State: state,
			Style: StatusClosedStyle,
		}
	default:
		return Status{
			Icon:  IconLocal,
			Label: "Local",
			State: "local",
			Style: StatusLocalStyle,
		}
	}
}

// PatchSetStatus returns the Status for a patch set, based on its kind and
// pull request state
func PatchSetStatus(ps *model.PatchSet) Status {
	switch ps.Kind {
	case model.PatchSetGH:
		if ps.Merged {
			return GetStatus("merged")
		}
		return GetStatus("open")
	case model.PatchSetSingle:
		return GetStatus("legacy")
	default:
		return GetStatus("custom")
	}
}

// StageStatus returns the Status for a stage
func StageStatus(stage *model.Stage) Status {
	if stage.Committed {
		return GetStatus("committed")
	}
	return GetStatus("open")
}

// ManifestStatus returns the Status for a manifest
func ManifestStatus(m *model.Manifest) Status {
	if m.Published {
		return GetStatus("published")
	}
	return GetStatus("draft")
}

// ReleaseStatus returns the Status for a release
func ReleaseStatus(r *model.Release) Status {
	if r.Finished {
		return GetStatus("finished")
	}
	return GetStatus("draft")
}

// Render returns the full status with icon and label (e.g., "● Open")
func (s Status) Render() string {
	return s.Style.Render(s.Icon + " " + s.Label)
}

// RenderCompact returns just the styled icon
func (s Status) RenderCompact() string {
	return s.Style.Render(s.Icon)
}

// RenderWithCount returns status with count (e.g., "◆ 3 merged")
func (s Status) RenderWithCount(count int) string {
	if count == 0 {
		return ""
	}
	text := fmt.Sprintf("%s %d %s", s.Icon, count, strings.ToLower(s.Label))
	return s.Style.Render(text)
}

// FormatPatchSetSummary formats per-state patch set counts,
// e.g. "◆ 2 merged  ● 1 open  ◯ 1 custom"
func FormatPatchSetSummary(sets []*model.PatchSet) string {
	var merged, open, custom, legacy int
	for _, ps := range sets {
		switch PatchSetStatus(ps).State {
		case "merged":
			merged++
		case "open":
			open++
		case "legacy":
			legacy++
		default:
			custom++
		}
	}

	var parts []string
	if merged > 0 {
		parts = append(parts, GetStatus("merged").RenderWithCount(merged))
	}
	if open > 0 {
		parts = append(parts, GetStatus("open").RenderWithCount(open))
	}
	if custom > 0 {
		parts = append(parts, GetStatus("custom").RenderWithCount(custom))
	}
	if legacy > 0 {
		parts = append(parts, GetStatus("legacy").RenderWithCount(legacy))
	}
	if len(parts) == 0 {
		return Dim("no patch sets")
	}
	return strings.Join(parts, "  ")
}
