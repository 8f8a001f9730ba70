package manifest

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// ListCommand lists manifests, of one release or of all
type ListCommand struct {
	// Arguments
	Release string

	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *ListCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list [release]",
		Short: "List manifests",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				c.Release = args[0]
			}
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *ListCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	if c.Release != "" {
		r, err := app.Engine.Release(c.Release)
		if err != nil {
			return err
		}
		manifests, err := app.Engine.Manifests(r.Name)
		if err != nil {
			return err
		}
		ui.Print(ui.RenderManifestList(r, manifests))
		return nil
	}

	releases, err := app.Engine.Releases()
	if err != nil {
		return err
	}
	if len(releases) == 0 {
		ui.Info("No releases yet.")
		return nil
	}
	for _, r := range releases {
		manifests, err := app.Engine.Manifests(r.Name)
		if err != nil {
			return err
		}
		if len(manifests) == 0 {
			continue
		}
		ui.Print(ui.RenderManifestList(r, manifests))
	}
	return nil
}
