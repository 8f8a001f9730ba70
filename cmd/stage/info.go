package stage

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/ui"
)

// InfoCommand shows the manifest's open stage, or its latest one
type InfoCommand struct {
	// Arguments
	Manifest string

	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *InfoCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info <manifest>",
		Short: "Show the open stage",
		Long:  `Show the manifest's open stage, or the most recent one if none is open.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *InfoCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	m, err := app.Engine.ResolveManifest(c.Manifest)
	if err != nil {
		return err
	}
	if len(m.Stages) == 0 {
		return errkind.Userf("manifest %s has no stages, open one with: crt stage new %s", m.DisplayName(), m.DisplayName())
	}

	stage := m.ActiveStage()
	if stage == nil {
		stage = &m.Stages[len(m.Stages)-1]
	}

	sets, err := app.PatchSets(m)
	if err != nil {
		return err
	}

	ui.Print(ui.RenderStageInfo(m, stage, sets))
	return nil
}
