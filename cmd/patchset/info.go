package patchset

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/ui"
)

// InfoCommand shows one patch set in detail
type InfoCommand struct {
	// Arguments
	UUID string

	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *InfoCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info [uuid]",
		Short: "Show a patch set",
		Long:  `Show a patch set's provenance and patches. Without a UUID, pick interactively.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				c.UUID = args[0]
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

	ps, err := c.resolve(app)
	if err != nil || ps == nil {
		return err
	}

	ui.Print(ui.RenderPatchSetInfo(ps))
	return nil
}

func (c *InfoCommand) resolve(app *cli.App) (*model.PatchSet, error) {
	if c.UUID != "" {
		return app.Store.GetPatchSet(c.UUID)
	}

	sets, err := app.Store.ListPatchSets()
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		ui.Info("No patch sets in the store.")
		return nil, nil
	}
	return ui.SelectPatchSet(sets)
}
