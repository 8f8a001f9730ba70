package release

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// ListCommand lists all releases
type ListCommand struct {
	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *ListCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

	releases, err := app.Engine.Releases()
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(releases))
	for _, r := range releases {
		manifests, err := app.Engine.Manifests(r.Name)
		if err != nil {
			return err
		}
		counts[r.Name] = len(manifests)
	}

	ui.Print(ui.RenderReleaseList(releases, counts))
	return nil
}
