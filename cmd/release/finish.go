package release

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/apply"
	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/ui"
)

// FinishCommand promotes a manifest to the final state of a release
type FinishCommand struct {
	// Arguments
	Release  string
	Manifest string

	// Flags
	Sign       bool
	Force      bool
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *FinishCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "finish <release> <manifest>",
		Short: "Finish a release",
		Long: `Finish a release by promoting one of its manifests to final.

The manifest is re-materialized from its patch sets, the branch is pushed
to the destination, and the branch head is tagged with the release name.
A release can be finished exactly once.

Example:
  crt release finish ces-v19.2.1 m1
  crt release finish ces-v19.2.1 m1 --sign`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Release = args[0]
			c.Manifest = args[1]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().BoolVar(&c.Sign, "sign", false, "GPG-sign the release tag")
	cmd.Flags().BoolVarP(&c.Force, "force", "f", false, "Skip confirmation prompt")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *FinishCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	r, err := app.Engine.CheckFinishable(c.Release)
	if err != nil {
		return err
	}
	m, err := app.Engine.ResolveManifest(c.Manifest)
	if err != nil {
		return err
	}
	if m.Release != r.Name {
		return errkind.Userf("manifest %s belongs to release %s, not %s", m.DisplayName(), m.Release, r.Name)
	}

	if !c.Force {
		ui.Infof("Finishing tags %s and pushes branch %s to %s. This cannot be undone.",
			r.TagName(), m.BranchName(r.Name), r.DstRepo)
		prompt := fmt.Sprintf("Type the release name '%s' to confirm: ", ui.Bold(r.Name))
		if !ui.Confirm(prompt, r.Name) {
			ui.Info("Finish cancelled.")
			return nil
		}
		ui.Print("")
	}

	mat, err := app.Materializer()
	if err != nil {
		return err
	}
	result, err := mat.Finish(r, m, apply.Options{Sign: c.Sign})
	if err != nil {
		return err
	}

	if err := app.Engine.MarkFinished(r.Name, m.UUID); err != nil {
		return fmt.Errorf("tag %s pushed but release not recorded as finished: %w", result.Tag, err)
	}

	ui.Print(ui.RenderFinishSummary(r.Name, result.Tag, result.Branch))
	return nil
}
