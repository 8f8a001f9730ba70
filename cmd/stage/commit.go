package stage

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// CommitCommand freezes the open stage
type CommitCommand struct {
	// Arguments
	Manifest string

	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *CommitCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "commit <manifest>",
		Short: "Commit the open stage",
		Long: `Commit the manifest's open stage.

Committing freezes the stage's patch set sequence and republishes the
release's human-readable patch tree. Author and tags stay amendable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *CommitCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	stage, m, err := app.Engine.CommitStage(c.Manifest, "")
	if err != nil {
		return err
	}

	ui.Successf("Committed stage %s of manifest %s (%d patch sets)", stage.Label(), m.DisplayName(), len(stage.PatchSets))
	ui.Infof("Patch tree republished under tree/%s", m.Release)
	return nil
}
