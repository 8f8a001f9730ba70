package patchset

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/git"
	"github.com/clyso/crt/internal/mbox"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/ui"
)

// ImportCommand builds a custom patch set from a local repository
type ImportCommand struct {
	// Arguments
	RepoPath string
	RevRange string

	// Flags
	Title      string
	Release    string
	ConfigPath string

	// Clients (can be mocked in tests)
	App  *cli.App
	Repo *git.Client
}

// Register registers the command with cobra
func (c *ImportCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "import <repo-path> <rev-range>",
		Short: "Import commits as a custom patch set",
		Long: `Build a custom patch set from commits of a local repository.

The range must be linear; merge commits are rejected. Commits already
stored under another patch set are reported by their patch id so the
same backport is not staged twice.

Example:
  crt patchset import ~/src/ceph v19.2.0..backport-tcmalloc
  crt patchset import . HEAD~3..HEAD --title "tcmalloc bump" --release ces-v19.2.1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.RepoPath = args[0]
			c.RevRange = args[1]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().StringVar(&c.Title, "title", "", "Patch set title (default: first commit subject)")
	cmd.Flags().StringVar(&c.Release, "release", "", "Release the set is intended for, used in its tree entry name")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *ImportCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	if c.Release != "" {
		if _, err := app.Engine.Release(c.Release); err != nil {
			return err
		}
	}

	repo := c.Repo
	if repo == nil {
		if repo, err = git.NewClient(c.RepoPath); err != nil {
			return errkind.Userf("%v", err)
		}
	}

	merges, err := repo.MergeCommits(c.RevRange)
	if err != nil {
		return err
	}
	if len(merges) > 0 {
		return errkind.Userf("range %s contains %d merge commits, only linear histories can be imported", c.RevRange, len(merges))
	}

	blob, err := repo.FormatPatchMbox(c.RevRange)
	if err != nil {
		return err
	}
	shas, err := repo.RevList(c.RevRange)
	if err != nil {
		return err
	}
	msgs, err := mbox.Split(blob)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return errkind.Userf("range %s contains no commits", c.RevRange)
	}
	if len(msgs) != len(shas) {
		return errkind.Userf("range %s rendered %d patches for %d commits, does it touch binary-only changes?", c.RevRange, len(msgs), len(shas))
	}

	source := c.RepoPath
	if url, err := repo.RemoteURL("origin"); err == nil && url != "" {
		source = url
	}

	known, err := app.Store.ListPatchSets()
	if err != nil {
		return err
	}
	index := patchIDIndex(known)

	patches := make([]model.Patch, len(msgs))
	duplicates := 0
	for i, msg := range msgs {
		info, err := mbox.Parse(msg)
		if err != nil {
			return err
		}
		id, err := repo.PatchID(msg)
		if err != nil {
			return err
		}
		if prior := index[id]; prior != nil {
			ui.Warningf("'%s' already appears in patch set '%s' (%s)", info.Title, prior.Title, model.ShortUUID(prior.UUID))
			duplicates++
		}
		patches[i] = model.Patch{
			SHA:              shas[i],
			Author:           info.Author,
			AuthorDate:       info.Date,
			Title:            info.Title,
			Body:             info.Body,
			SignedOffBy:      info.SignedOffBy,
			CherryPickedFrom: info.CherryPickedFrom,
			Fixes:            info.Fixes,
			SourceRepo:       source,
			PatchID:          id,
		}
	}

	title := c.Title
	if title == "" {
		title = patches[0].Title
	}

	ps := &model.PatchSet{
		Kind:        model.PatchSetCustom,
		Title:       title,
		Patches:     patches,
		ReleaseName: c.Release,
	}
	uuid, err := app.Store.PutPatchSet(ps, blob)
	if err != nil {
		return err
	}

	ui.Successf("Imported '%s' (%d patches)", title, len(patches))
	if duplicates > 0 {
		ui.Warningf("%d of them match patches already in the store", duplicates)
	}
	ui.Infof("UUID: %s", uuid)
	return nil
}

// patchIDIndex maps every recorded patch id to the set carrying it
func patchIDIndex(sets []*model.PatchSet) map[string]*model.PatchSet {
	index := make(map[string]*model.PatchSet)
	for _, ps := range sets {
		for i := range ps.Patches {
			if id := ps.Patches[i].PatchID; id != "" {
				index[id] = ps
			}
		}
	}
	return index
}
