package release

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// InfoCommand shows one release with its manifests
type InfoCommand struct {
	// Arguments
	Name string

	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *InfoCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show a release and its manifests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Name = args[0]
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

	r, err := app.Engine.Release(c.Name)
	if err != nil {
		return err
	}
	manifests, err := app.Engine.Manifests(r.Name)
	if err != nil {
		return err
	}

	ui.Print(ui.RenderReleaseInfo(r, manifests))
	return nil
}
