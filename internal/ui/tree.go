package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/clyso/crt/internal/model"
)

// RenderManifestTree renders a manifest as a tree of stages and patch sets
// Example output:
//
//	m1 ◆ Published
//	╰─ ceph/ceph @ v19.2.0
//	   ├─ ◆ rc.1 (committed 2025-03-12, 2 patch sets)
//	   │  ├─ ◆ ceph/ceph#61234 osd: fix crash on scrub (a1b2c3d4)
//	   │  ╰─ ◯ Backport tcmalloc bump (b2c3d4e5)
//	   ╰─ ● rc.2 (open, 1 patch set)
//	      ╰─ ● ceph/ceph#61300 mon: quorum fix (c3d4e5f6)
func RenderManifestTree(release *model.Release, m *model.Manifest, sets map[string]*model.PatchSet) string {
	title := TreeRootStyle.Render(m.DisplayName()) + " " + ManifestStatus(m).Render()
	if len(m.Stages) == 0 {
		return title + "\n" + Dim("  No stages yet")
	}

	t := tree.Root(title)

	// Base node anchors the tree at the release's shared base
	baseLabel := Muted(fmt.Sprintf("%s @ %s", release.BaseRepo, release.BaseRef))
	baseNode := tree.Root(baseLabel)

	for i := range m.Stages {
		stage := &m.Stages[i]
		stageNode := tree.Root(formatStageForTree(stage))
		for _, uuid := range stage.PatchSets {
			stageNode.Child(formatPatchSetForTree(uuid, sets[uuid]))
		}
		baseNode.Child(stageNode)
	}

	t.Child(baseNode)

	t.Enumerator(getRoundedEnumerator()).
		EnumeratorStyle(TreeEnumeratorStyle).
		Indenter(RenderTreeIndenter())

	return t.String()
}

// RenderReleaseTree renders a release and its manifests as a tree
// Example output:
//
//	ces-v19.2.0 ● Open
//	╰─ ceph/ceph @ v19.2.0 → clyso/ceph
//	   ├─ ◆ m1 (published, 2 stages, 5 patch sets)
//	   ╰─ ● 8f14e45f (draft, 1 stage, 2 patch sets)
func RenderReleaseTree(release *model.Release, manifests []*model.Manifest) string {
	title := TreeRootStyle.Render(release.Name) + " " + ReleaseStatus(release).Render()
	if len(manifests) == 0 {
		return title + "\n" + Dim("  No manifests yet")
	}

	t := tree.Root(title)

	baseLabel := Muted(fmt.Sprintf("%s @ %s → %s", release.BaseRepo, release.BaseRef, release.DstRepo))
	baseNode := tree.Root(baseLabel)

	for _, m := range manifests {
		baseNode.Child(formatManifestForTree(release, m))
	}

	t.Child(baseNode)

	t.Enumerator(getRoundedEnumerator()).
		EnumeratorStyle(TreeEnumeratorStyle).
		Indenter(RenderTreeIndenter())

	return t.String()
}

// formatStageForTree formats a stage node label
func formatStageForTree(stage *model.Stage) string {
	status := StageStatus(stage)

	var detail string
	if stage.Committed {
		detail = fmt.Sprintf("committed %s, %s", stage.CommittedAt.Local().Format("2006-01-02"), countNoun(len(stage.PatchSets), "patch set"))
	} else {
		detail = fmt.Sprintf("open, %s", countNoun(len(stage.PatchSets), "patch set"))
	}

	return fmt.Sprintf("%s %s %s",
		status.RenderCompact(),
		TreeStageStyle.Render(stage.Label()),
		Dim("("+detail+")"))
}

// formatPatchSetForTree formats a patch set line inside a stage node.
// A nil set means the manifest references a UUID the store no longer has.
func formatPatchSetForTree(uuid string, ps *model.PatchSet) string {
	if ps == nil {
		return ErrorStyle.Render("✗ ") + Dim(model.ShortUUID(uuid)) + " " + ErrorStyle.Render("missing from store")
	}

	status := PatchSetStatus(ps)

	title := ps.Title
	if len(title) > Display.MaxTitleLength {
		title = title[:Display.MaxTitleLength-3] + "..."
	}

	var ref string
	if ps.Kind == model.PatchSetGH {
		ref = Highlight(ps.PRRef()) + " "
	}

	return fmt.Sprintf("%s %s%s %s",
		status.RenderCompact(),
		ref,
		title,
		Dim(fmt.Sprintf("(%s)", model.ShortUUID(ps.UUID))))
}

// formatManifestForTree formats a manifest summary line for the release tree
func formatManifestForTree(release *model.Release, m *model.Manifest) string {
	status := ManifestStatus(m)

	state := "draft"
	if m.Published {
		state = "published"
	}
	if release.Finished && release.FinishedManifest == m.UUID {
		state = "finished"
		status = GetStatus("finished")
	}

	detail := fmt.Sprintf("%s, %s, %s",
		state,
		countNoun(len(m.Stages), "stage"),
		countNoun(len(m.EffectiveSequence()), "patch set"))

	return fmt.Sprintf("%s %s %s",
		status.RenderCompact(),
		m.DisplayName(),
		Dim("("+detail+")"))
}

func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// getRoundedEnumerator returns a custom rounded enumerator for trees
func getRoundedEnumerator() tree.Enumerator {
	return func(children tree.Children, i int) string {
		if children.Length() == 0 {
			return ""
		}

		// Check if this is the last child
		isLast := i == children.Length()-1

		if isLast {
			return "╰─ "
		}
		return "├─ "
	}
}

// RenderTreeIndenter returns an indenter function for trees
func RenderTreeIndenter() tree.Indenter {
	return func(children tree.Children, i int) string {
		if children.Length() == 0 {
			return ""
		}

		// Check if this is the last child
		isLast := i == children.Length()-1

		if isLast {
			return "   " // No vertical line after last child
		}
		return "│  " // Vertical line for non-last children
	}
}
