package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/clyso/crt/internal/model"
)

func init() {
	// Force lipgloss to initialize and detect terminal before fuzzy finder starts
	// This prevents ANSI escape sequences from leaking into the finder input
	_ = lipgloss.NewStyle().Render("")
	// Ensure color profile is detected early
	_ = lipgloss.HasDarkBackground()
}

// SelectPatchSet presents a fuzzy finder to select a patch set.
// Returns the selected patch set, or nil if the user cancelled the selection.
// Returns an error only if the fuzzy finder encounters an unexpected error.
func SelectPatchSet(sets []*model.PatchSet) (*model.PatchSet, error) {
	// Flush stdout/stderr before starting fuzzy finder to clear any ANSI sequences
	os.Stdout.Sync()
	os.Stderr.Sync()

	idx, err := fuzzyfinder.Find(
		sets,
		func(i int) string {
			return FormatPatchSetFinderLine(sets[i])
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return FormatPatchSetPreview(sets[i])
		}),
	)

	if err != nil {
		// User cancelled (Ctrl+C or ESC)
		return nil, nil
	}

	return sets[idx], nil
}

// SelectManifest presents a fuzzy finder to select a manifest.
// Returns the selected manifest, or nil if the user cancelled the selection.
func SelectManifest(manifests []*model.Manifest) (*model.Manifest, error) {
	os.Stdout.Sync()
	os.Stderr.Sync()

	idx, err := fuzzyfinder.Find(
		manifests,
		func(i int) string {
			return FormatManifestFinderLine(manifests[i])
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return FormatManifestPreview(manifests[i])
		}),
	)

	if err != nil {
		return nil, nil
	}

	return manifests[idx], nil
}
