package stage

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// AddCommand appends a patch set to the open stage
type AddCommand struct {
	// Arguments
	Manifest string
	PatchSet string

	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *AddCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "add <manifest> [patchset-uuid]",
		Short: "Add a patch set to the open stage",
		Long: `Append a stored patch set to the manifest's open stage.

Append order is the apply order; there is no reordering. Without a UUID,
pick the patch set interactively.

Example:
  crt stage add m1 2f1e9c3a-77aa-4cc0-8d3f-0b6f0e2d9c11
  crt stage add m1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			if len(args) > 1 {
				c.PatchSet = args[1]
			}
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *AddCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	uuid := c.PatchSet
	title := ""
	if uuid == "" {
		sets, err := app.Store.ListPatchSets()
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			ui.Info("No patch sets in the store. Ingest one with: crt patchset add")
			return nil
		}
		picked, err := ui.SelectPatchSet(sets)
		if err != nil || picked == nil {
			return err
		}
		uuid = picked.UUID
		title = picked.Title
	} else if ps, err := app.Store.GetPatchSet(uuid); err == nil {
		title = ps.Title
	}

	m, err := app.Engine.AddPatchSet(c.Manifest, "", uuid)
	if err != nil {
		return err
	}

	stage := m.ActiveStage()
	if title != "" {
		ui.Successf("Added '%s' to stage %s (position %d)", title, stage.Label(), len(stage.PatchSets))
	} else {
		ui.Successf("Added %s to stage %s (position %d)", uuid, stage.Label(), len(stage.PatchSets))
	}
	return nil
}
