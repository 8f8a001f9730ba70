package manifest

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/ui"
)

// InfoCommand shows one manifest as a stage tree
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
		Use:   "info [manifest]",
		Short: "Show a manifest and its stages",
		Long: `Show a manifest: its stages, their patch sets and the branch name a
materialization would produce. Without an argument, pick interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				c.Manifest = args[0]
			}
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

	m, err := resolveOrPick(app, c.Manifest)
	if err != nil || m == nil {
		return err
	}

	r, err := app.Engine.Release(m.Release)
	if err != nil {
		return err
	}
	sets, err := app.PatchSets(m)
	if err != nil {
		return err
	}

	ui.Print(ui.RenderManifestInfo(r, m, sets))
	return nil
}

// resolveOrPick resolves a manifest reference, falling back to a fuzzy
// picker over all manifests when the reference is empty. A nil manifest
// with a nil error means the user cancelled the picker.
func resolveOrPick(app *cli.App, ref string) (*model.Manifest, error) {
	if ref != "" {
		return app.Engine.ResolveManifest(ref)
	}

	manifests, err := app.Engine.Manifests("")
	if err != nil {
		return nil, err
	}
	if len(manifests) == 0 {
		ui.Info("No manifests yet.")
		return nil, nil
	}
	return ui.SelectManifest(manifests)
}
