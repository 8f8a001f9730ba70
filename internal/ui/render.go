package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clyso/crt/internal/model"
)

// RenderReleaseList renders all releases with styling
func RenderReleaseList(releases []*model.Release, manifestCounts map[string]int) string {
	if len(releases) == 0 {
		return RenderPanel(
			Dim("No releases found.\n") +
				Muted("Start one with: ") + Highlight("crt release start <name> --base <ref>"),
		)
	}

	var output strings.Builder

	output.WriteString(RenderTitle("Releases"))
	output.WriteString("\n\n")

	for _, r := range releases {
		var panel strings.Builder

		if r.Finished {
			nameStyle := lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPublished)
			panel.WriteString(nameStyle.Render(r.Name))
			panel.WriteString(" ")
			panel.WriteString(GetStatus("finished").Render())
		} else {
			panel.WriteString(BoldStyle.Render(r.Name))
		}
		panel.WriteString("\n")

		panel.WriteString(Dim("Base:      "))
		panel.WriteString(Muted(fmt.Sprintf("%s @ %s", r.BaseRepo, r.BaseRef)))
		panel.WriteString("\n")
		panel.WriteString(Dim("Dst:       "))
		panel.WriteString(Muted(r.DstRepo.String()))
		panel.WriteString("\n")
		if r.FromRelease != "" {
			panel.WriteString(Dim("From:      "))
			panel.WriteString(Muted(r.FromRelease))
			panel.WriteString("\n")
		}

		panel.WriteString(Dim("Manifests: "))
		if n := manifestCounts[r.Name]; n == 0 {
			panel.WriteString(Muted("none"))
		} else {
			panel.WriteString(fmt.Sprintf("%d", n))
		}

		boxStyle := BoxStyle
		if r.Finished {
			boxStyle = lipgloss.NewStyle().
				Border(BorderRounded).
				BorderForeground(ColorPublished).
				Padding(0, 1)
		}

		output.WriteString(boxStyle.Render(panel.String()))
		output.WriteString("\n\n")
	}

	output.WriteString(Dim(countNoun(len(releases), "release") + " total"))
	output.WriteString("\n")

	return output.String()
}

// RenderReleaseInfo renders detailed information about a release
func RenderReleaseInfo(release *model.Release, manifests []*model.Manifest) string {
	var output strings.Builder

	pairs := map[string]string{
		"Release": Bold(release.Name),
		"Status":  ReleaseStatus(release).Render(),
		"Base":    Muted(fmt.Sprintf("%s @ %s", release.BaseRepo, release.BaseRef)),
		"Dst":     Muted(release.DstRepo.String()),
		"Created": FormatTime(release.CreatedAt),
	}
	keys := []string{"Release", "Status", "Base", "Dst", "Created"}
	if release.FromRelease != "" {
		pairs["From"] = Muted(release.FromRelease)
		keys = append(keys, "From")
	}
	if release.Finished {
		pairs["Tag"] = Highlight(release.TagName())
		keys = append(keys, "Tag")
	}

	output.WriteString(RenderBox("Release", RenderKeyValueList(pairs, keys)))
	output.WriteString("\n\n")

	output.WriteString(RenderReleaseTree(release, manifests))
	output.WriteString("\n")

	return output.String()
}

// RenderManifestList renders the manifests of a release as a table
func RenderManifestList(release *model.Release, manifests []*model.Manifest) string {
	if len(manifests) == 0 {
		return RenderPanel(
			Dim("No manifests in this release.\n") +
				Muted("Create one with: ") + Highlight("crt manifest new"),
		)
	}

	var output strings.Builder
	output.WriteString(RenderHeader(fmt.Sprintf("Manifests of %s", release.Name)))
	output.WriteString("\n")

	t := NewTable("NAME", "STATUS", "STAGES", "PATCH SETS", "CREATED", "UUID")
	for _, m := range manifests {
		status := ManifestStatus(m)
		if release.Finished && release.FinishedManifest == m.UUID {
			status = GetStatus("finished")
		}

		committed := 0
		for i := range m.Stages {
			if m.Stages[i].Committed {
				committed++
			}
		}

		t.Row(
			Truncate(m.DisplayName(), Display.MaxNameLength),
			status.Render(),
			fmt.Sprintf("%d (%d committed)", len(m.Stages), committed),
			fmt.Sprintf("%d", len(m.EffectiveSequence())),
			FormatTime(m.CreatedAt),
			Dim(model.ShortUUID(m.UUID)),
		)
	}

	output.WriteString(t.Render())
	output.WriteString("\n")
	return output.String()
}

// RenderManifestInfo renders a manifest with its stage tree and branch name
func RenderManifestInfo(release *model.Release, m *model.Manifest, sets map[string]*model.PatchSet) string {
	var output strings.Builder

	pairs := map[string]string{
		"Manifest": Bold(m.DisplayName()),
		"UUID":     Muted(m.UUID),
		"Release":  release.Name,
		"Status":   ManifestStatus(m).Render(),
		"Branch":   Highlight(m.BranchName(release.Name)),
		"Created":  FormatTime(m.CreatedAt),
	}
	keys := []string{"Manifest", "UUID", "Release", "Status", "Branch", "Created"}
	if m.FromUUID != "" {
		from := m.FromName
		if from == "" {
			from = model.ShortUUID(m.FromUUID)
		}
		pairs["Copied from"] = Muted(from)
		keys = append(keys, "Copied from")
	}

	output.WriteString(RenderBox("Manifest", RenderKeyValueList(pairs, keys)))
	output.WriteString("\n\n")

	output.WriteString(RenderManifestTree(release, m, sets))
	output.WriteString("\n\n")

	var all []*model.PatchSet
	for _, uuid := range m.EffectiveSequence() {
		if ps := sets[uuid]; ps != nil {
			all = append(all, ps)
		}
	}
	output.WriteString(FormatPatchSetSummary(all))
	output.WriteString("\n")

	return output.String()
}

// RenderStageInfo renders one stage with its patch sets
func RenderStageInfo(m *model.Manifest, stage *model.Stage, sets map[string]*model.PatchSet) string {
	var output strings.Builder

	pairs := map[string]string{
		"Stage":    Bold(stage.Label()),
		"Manifest": m.DisplayName(),
		"Status":   StageStatus(stage).Render(),
		"Created":  FormatTime(stage.CreatedAt),
	}
	keys := []string{"Stage", "Manifest", "Status", "Created"}
	if !stage.Author.IsZero() {
		pairs["Author"] = stage.Author.String()
		keys = append(keys, "Author")
	}
	if stage.Committed {
		pairs["Committed"] = FormatTime(stage.CommittedAt)
		keys = append(keys, "Committed")
	}

	output.WriteString(RenderBox("Stage", RenderKeyValueList(pairs, keys)))
	output.WriteString("\n\n")

	if len(stage.PatchSets) == 0 {
		output.WriteString(Dim("No patch sets in this stage yet."))
		output.WriteString("\n")
		return output.String()
	}

	t := NewTable("#", "STATUS", "REF", "TITLE", "PATCHES", "UUID")
	for i, uuid := range stage.PatchSets {
		ps := sets[uuid]
		if ps == nil {
			t.Row(fmt.Sprintf("%d", i+1), ErrorStyle.Render("✗ missing"), "", "", "", Dim(model.ShortUUID(uuid)))
			continue
		}
		ref := ""
		if ps.Kind == model.PatchSetGH {
			ref = ps.PRRef()
		}
		t.Row(
			fmt.Sprintf("%d", i+1),
			PatchSetStatus(ps).Render(),
			Highlight(ref),
			Truncate(ps.Title, Display.MaxTitleLength),
			fmt.Sprintf("%d", len(ps.Patches)),
			Dim(model.ShortUUID(ps.UUID)),
		)
	}

	output.WriteString(t.Render())
	output.WriteString("\n")
	return output.String()
}

// RenderPatchSetList renders patch sets as a table
func RenderPatchSetList(sets []*model.PatchSet) string {
	if len(sets) == 0 {
		return RenderPanel(Dim("No patch sets in the store."))
	}

	var output strings.Builder

	t := NewTable("STATUS", "REF", "TITLE", "PATCHES", "CREATED", "UUID")
	for _, ps := range sets {
		ref := ""
		if ps.Kind == model.PatchSetGH {
			ref = ps.PRRef()
		}
		t.Row(
			PatchSetStatus(ps).Render(),
			Highlight(ref),
			Truncate(ps.Title, Display.MaxTitleLength),
			fmt.Sprintf("%d", len(ps.Patches)),
			FormatTime(ps.CreatedAt),
			Dim(model.ShortUUID(ps.UUID)),
		)
	}

	output.WriteString(t.Render())
	output.WriteString("\n\n")
	output.WriteString(FormatPatchSetSummary(sets))
	output.WriteString("\n")
	return output.String()
}

// RenderPatchSetInfo renders detailed information about a patch set
func RenderPatchSetInfo(ps *model.PatchSet) string {
	var output strings.Builder

	pairs := map[string]string{
		"Title":   Bold(ps.Title),
		"UUID":    Muted(ps.UUID),
		"Kind":    string(ps.Kind),
		"Status":  PatchSetStatus(ps).Render(),
		"Created": FormatTime(ps.CreatedAt),
	}
	keys := []string{"Title", "UUID", "Kind", "Status", "Created"}

	if ps.Kind == model.PatchSetGH {
		pairs["PR"] = Highlight(ps.PRRef())
		pairs["Head"] = Muted(ps.HeadSHA)
		pairs["Target"] = Muted(ps.TargetBranch)
		keys = append(keys, "PR", "Head", "Target")
		if ps.MergeDate != nil {
			pairs["Merged"] = FormatTime(*ps.MergeDate)
			keys = append(keys, "Merged")
		}
	}
	if ps.ReleaseName != "" {
		pairs["Release"] = ps.ReleaseName
		keys = append(keys, "Release")
	}

	output.WriteString(RenderBox("Patch Set", RenderKeyValueList(pairs, keys)))
	output.WriteString("\n\n")

	if len(ps.Patches) == 0 {
		output.WriteString(Dim("No patches recorded."))
		output.WriteString("\n")
		return output.String()
	}

	t := NewSimpleTable("#", "SHA", "TITLE", "AUTHOR")
	for i, p := range ps.Patches {
		sha := p.SHA
		if len(sha) > Display.UUIDDisplayLength {
			sha = sha[:Display.UUIDDisplayLength]
		}
		t.Row(
			fmt.Sprintf("%d", i+1),
			Dim(sha),
			Truncate(p.Title, Display.MaxTitleLength),
			Muted(p.Author.Name),
		)
	}

	output.WriteString(t.Render())
	output.WriteString("\n")
	return output.String()
}

// RenderPublishSummary renders the result of a materialization run
func RenderPublishSummary(branch string, patchSets, patches int, pushed, exploratory bool) string {
	var output strings.Builder

	output.WriteString(SuccessStyle.Render("✓ Materialized"))
	output.WriteString(" ")
	output.WriteString(Bold(branch))
	output.WriteString("\n")
	output.WriteString("  ")
	output.WriteString(Dim(fmt.Sprintf("%s, %s applied", countNoun(patchSets, "patch set"), countNoun(patches, "patch"))))
	output.WriteString("\n")

	switch {
	case pushed:
		output.WriteString("  ")
		output.WriteString(Dim("Pushed to destination (forced)"))
	case exploratory:
		output.WriteString("  ")
		output.WriteString(Dim("Exploratory branch, kept local"))
	default:
		output.WriteString("  ")
		output.WriteString(Dim("Kept local"))
	}

	return output.String()
}

// RenderFinishSummary renders the result of finishing a release
func RenderFinishSummary(release, tag, branch string) string {
	var output strings.Builder

	output.WriteString(SuccessStyle.Render(fmt.Sprintf("✓ Release %s finished", Bold(release))))
	output.WriteString("\n")
	output.WriteString("  ")
	output.WriteString(Dim("Tag:    "))
	output.WriteString(Highlight(tag))
	output.WriteString("\n")
	output.WriteString("  ")
	output.WriteString(Dim("Branch: "))
	output.WriteString(Muted(branch))

	return output.String()
}

// RenderMirrorPushSummary renders the result of a mirror push
func RenderMirrorPushSummary(uploaded, skipped int) string {
	var parts []string
	if uploaded > 0 {
		parts = append(parts, fmt.Sprintf("%d uploaded", uploaded))
	}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d already current", skipped))
	}
	if len(parts) == 0 {
		return Dim("Nothing to push")
	}
	return SuccessStyle.Render("✓ Mirror push complete") + " " + Dim("("+strings.Join(parts, ", ")+")")
}

// RenderMirrorSyncSummary renders the result of a mirror sync
func RenderMirrorSyncSummary(downloaded, unchanged int) string {
	var parts []string
	if downloaded > 0 {
		parts = append(parts, fmt.Sprintf("%d downloaded", downloaded))
	}
	if unchanged > 0 {
		parts = append(parts, fmt.Sprintf("%d already current", unchanged))
	}
	if len(parts) == 0 {
		return Dim("Mirror is empty")
	}
	return SuccessStyle.Render("✓ Sync complete") + " " + Dim("("+strings.Join(parts, ", ")+")")
}
