package publish

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/apply"
	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// Command materializes a manifest as a branch of the destination repository
type Command struct {
	// Arguments
	Manifest string

	// Flags
	Exploratory bool
	Cleanup     bool
	ConfigPath  string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "publish <manifest>",
		Short: "Materialize a manifest as a branch",
		Long: `Build the manifest's branch from its patch sets and push it.

The branch starts at the release base and applies every patch set in
stage order. The deterministic branch is rebuilt and force-pushed on
every run; --exploratory builds under a unique suffix instead and never
marks the manifest published.

On a patch conflict the worktree is kept for inspection unless
--cleanup is set.

Example:
  crt publish m1
  crt publish m1 --exploratory`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().BoolVar(&c.Exploratory, "exploratory", false, "Build under a unique branch name, leaving the deterministic branch alone")
	cmd.Flags().BoolVar(&c.Cleanup, "cleanup", false, "Discard the worktree on conflict instead of keeping it")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	m, err := app.Engine.ResolveManifest(c.Manifest)
	if err != nil {
		return err
	}
	r, err := app.Engine.Release(m.Release)
	if err != nil {
		return err
	}

	mat, err := app.Materializer()
	if err != nil {
		return err
	}
	result, err := mat.Materialize(r, m, apply.Options{
		Exploratory: c.Exploratory,
		Cleanup:     c.Cleanup,
		Push:        true,
	})
	if err != nil {
		return err
	}

	if result.Pushed && !result.Exploratory {
		if err := app.Engine.MarkPublished(m.UUID); err != nil {
			return err
		}
	}

	ui.Print(ui.RenderPublishSummary(result.Branch, result.PatchSets, result.Patches, result.Pushed, result.Exploratory))
	return nil
}
