package stage

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/engine"
	"github.com/clyso/crt/internal/ui"
)

// AbortCommand discards the open stage
type AbortCommand struct {
	// Arguments
	Manifest string

	// Flags
	Force      bool
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *AbortCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "abort <manifest>",
		Short: "Abort the open stage",
		Long: `Discard the manifest's open stage without committing it.

The stage's patch set list is lost; the patch sets themselves stay in
the store.

Example:
  crt stage abort m1
  crt stage abort m1 --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().BoolVarP(&c.Force, "force", "f", false, "Skip confirmation prompt")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *AbortCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	m, err := app.Engine.ResolveManifest(c.Manifest)
	if err != nil {
		return err
	}
	stage := m.ActiveStage()
	if stage == nil {
		return &engine.NoOpenStageError{Manifest: m.DisplayName()}
	}

	if !c.Force {
		ui.Warningf("Aborting drops stage %s with %d patch sets from manifest %s.", stage.Label(), len(stage.PatchSets), m.DisplayName())
		prompt := fmt.Sprintf("Type the stage label '%s' to confirm: ", ui.Bold(stage.Label()))
		if !ui.Confirm(prompt, stage.Label()) {
			ui.Info("Abort cancelled.")
			return nil
		}
	}

	if err := app.Engine.AbortStage(m.UUID, stage.UUID); err != nil {
		return err
	}

	ui.Successf("Aborted stage %s", stage.Label())
	return nil
}
