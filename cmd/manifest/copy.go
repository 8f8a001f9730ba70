package manifest

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// CopyCommand carries a manifest forward into a new one
type CopyCommand struct {
	// Arguments
	Manifest string

	// Flags
	Name       string
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *CopyCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "copy <manifest>",
		Short: "Copy a manifest",
		Long: `Copy a manifest within its release.

The committed stages of the source are carried forward by reference into
a fresh manifest. Open a new stage on the copy to diverge from the
source, e.g. to respin a release candidate.

Example:
  crt manifest copy m1 --name m2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().StringVar(&c.Name, "name", "", "Optional unique alias for the copy")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *CopyCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	src, err := app.Engine.ResolveManifest(c.Manifest)
	if err != nil {
		return err
	}

	m, err := app.Engine.CreateManifest(src.Release, c.Name, src.UUID)
	if err != nil {
		return err
	}

	ui.Successf("Copied %s to %s", src.DisplayName(), m.DisplayName())
	ui.Infof("Carried %d committed stages forward", len(m.Stages))
	ui.Infof("UUID: %s", m.UUID)

	return nil
}
