package patchset

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// ListCommand lists all stored patch sets
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
		Short: "List stored patch sets",
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

	sets, err := app.Store.ListPatchSets()
	if err != nil {
		return err
	}

	ui.Print(ui.RenderPatchSetList(sets))
	return nil
}
