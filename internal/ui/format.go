package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/clyso/crt/internal/model"
)

// Truncate truncates text to maxLen with an ellipsis if needed
// Uses lipgloss for proper ANSI-aware width handling
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	width := lipgloss.Width(text)
	if width <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return lipgloss.NewStyle().MaxWidth(maxLen).Render(text)
	}
	return lipgloss.NewStyle().MaxWidth(maxLen-3).Render(text) + "..."
}

func Pad(text string, width int, align lipgloss.Position) string {
	return lipgloss.PlaceHorizontal(width, align, text)
}

func RenderBox(title string, content string) string {
	style := BoxStyle
	if title != "" {
		style = style.BorderForeground(ColorPrimary)
		titleStyled := lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Render(title)

		combined := lipgloss.JoinVertical(lipgloss.Left, titleStyled, "", content)
		return style.Render(combined)
	}
	return style.Render(content)
}

func RenderPanel(content string) string {
	return PanelStyle.Render(content)
}

func RenderHeader(text string) string {
	return HeaderStyle.Render(text)
}

func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

func RenderKeyValue(key string, value string) string {
	keyStyled := DimStyle.Render(key + ":")
	return fmt.Sprintf("%s %s", keyStyled, value)
}

// RenderKeyValueList renders aligned key-value lines in the order of keys
func RenderKeyValueList(pairs map[string]string, keys []string) string {
	maxKeyLen := 0
	for _, key := range keys {
		if keyLen := lipgloss.Width(key); keyLen > maxKeyLen {
			maxKeyLen = keyLen
		}
	}

	var lines []string
	for _, key := range keys {
		paddedKey := Pad(key, maxKeyLen, lipgloss.Left)
		keyStyled := DimStyle.Render(paddedKey + ":")
		lines = append(lines, fmt.Sprintf("%s %s", keyStyled, pairs[key]))
	}
	return strings.Join(lines, "\n")
}

// FormatTime renders a timestamp in the tool's standard display form
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatPatchSetFinderLine formats a patch set for fuzzy finder display.
// Fuzzy finder doesn't support ANSI codes, so we use plain text.
func FormatPatchSetFinderLine(ps *model.PatchSet) string {
	ref := "custom"
	if ps.Kind == model.PatchSetGH {
		ref = ps.PRRef()
	}

	title := ps.Title
	if len(title) > Display.MaxTitleLength {
		title = title[:Display.MaxTitleLength-3] + "..."
	}

	return fmt.Sprintf("%-20s %s %s (%s)",
		ref,
		PatchSetStatus(ps).Icon,
		title,
		model.ShortUUID(ps.UUID))
}

// FormatPatchSetPreview formats a patch set for the fuzzy finder preview
// window. Preview pane supports ANSI codes, so we can use styling.
func FormatPatchSetPreview(ps *model.PatchSet) string {
	lines := []string{
		RenderKeyValue("Title", Bold(ps.Title)),
		RenderKeyValue("UUID", Muted(ps.UUID)),
		RenderKeyValue("Kind", string(ps.Kind)),
		RenderKeyValue("Status", PatchSetStatus(ps).Render()),
		RenderKeyValue("Patches", fmt.Sprintf("%d", len(ps.Patches))),
		RenderKeyValue("Created", FormatTime(ps.CreatedAt)),
	}

	if ps.Kind == model.PatchSetGH {
		lines = append(lines,
			RenderKeyValue("PR", Highlight(ps.PRRef())),
			RenderKeyValue("Head", Muted(ps.HeadSHA)),
		)
		if ps.MergeDate != nil {
			lines = append(lines, RenderKeyValue("Merged", FormatTime(*ps.MergeDate)))
		}
	}

	if len(ps.Patches) > 0 {
		lines = append(lines, "", Bold("Patches:"))
		max := Display.MaxPreviewLines
		if len(ps.Patches) < max {
			max = len(ps.Patches)
		}
		for i := 0; i < max; i++ {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, ps.Patches[i].Title))
		}
		if len(ps.Patches) > max {
			lines = append(lines, Dim(fmt.Sprintf("  ... and %d more", len(ps.Patches)-max)))
		}
	}

	return strings.Join(lines, "\n")
}

// FormatManifestFinderLine formats a manifest for fuzzy finder display
func FormatManifestFinderLine(m *model.Manifest) string {
	state := "draft"
	if m.Published {
		state = "published"
	}

	committed := 0
	for i := range m.Stages {
		if m.Stages[i].Committed {
			committed++
		}
	}

	return fmt.Sprintf("%-24s %-10s %d stages (%d committed), %d patch sets",
		m.DisplayName(),
		state,
		len(m.Stages),
		committed,
		len(m.EffectiveSequence()))
}

// FormatManifestPreview formats a manifest for the fuzzy finder preview
// window
func FormatManifestPreview(m *model.Manifest) string {
	lines := []string{
		RenderKeyValue("Manifest", Bold(m.DisplayName())),
		RenderKeyValue("UUID", Muted(m.UUID)),
		RenderKeyValue("Release", m.Release),
		RenderKeyValue("Status", ManifestStatus(m).Render()),
		RenderKeyValue("Created", FormatTime(m.CreatedAt)),
	}
	if m.FromUUID != "" {
		from := m.FromName
		if from == "" {
			from = model.ShortUUID(m.FromUUID)
		}
		lines = append(lines, RenderKeyValue("Copied from", Muted(from)))
	}

	if len(m.Stages) > 0 {
		lines = append(lines, "", Bold("Stages:"))
		for i := range m.Stages {
			stage := &m.Stages[i]
			lines = append(lines, fmt.Sprintf("  %s %s, %d patch sets",
				StageStatus(stage).RenderCompact(),
				stage.Label(),
				len(stage.PatchSets)))
		}
	}

	return strings.Join(lines, "\n")
}
