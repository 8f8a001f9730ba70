package release

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/engine"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/ui"
)

// StartCommand creates a new release
type StartCommand struct {
	// Arguments
	Name string

	// Flags
	BaseRef    string
	BaseRepo   string
	DstRepo    string
	From       string
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *StartCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a new release",
		Long: `Start a new release with a fixed base and destination.

The base ref and repositories are set once here and shared by every
manifest of the release. With --from, unset values are inherited from
the given release, the base ref defaulting to its finish tag.

Example:
  crt release start ces-v19.2.1 --base-ref v19.2.1 --base-repo ceph/ceph --dst-repo clyso/ceph
  crt release start ces-v19.2.2 --from ces-v19.2.1 --base-ref v19.2.2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Name = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().StringVar(&c.BaseRef, "base-ref", "", "Base ref in the base repository (tag, branch or commit)")
	cmd.Flags().StringVar(&c.BaseRepo, "base-repo", "", "Base repository as owner/name")
	cmd.Flags().StringVar(&c.DstRepo, "dst-repo", "", "Destination repository as owner/name")
	cmd.Flags().StringVar(&c.From, "from", "", "Release to inherit unset values from")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *StartCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	if c.From == "" {
		if c.BaseRef == "" {
			return errkind.Userf("--base-ref is required unless --from is given")
		}
		if c.BaseRepo == "" {
			return errkind.Userf("--base-repo is required unless --from is given")
		}
		if c.DstRepo == "" {
			return errkind.Userf("--dst-repo is required unless --from is given")
		}
	}

	opts := engine.ReleaseOptions{
		Name:    c.Name,
		BaseRef: c.BaseRef,
		From:    c.From,
	}
	if c.BaseRepo != "" {
		if opts.Base, err = model.ParseRepo(c.BaseRepo); err != nil {
			return errkind.Userf("invalid --base-repo: %v", err)
		}
	}
	if c.DstRepo != "" {
		if opts.Dst, err = model.ParseRepo(c.DstRepo); err != nil {
			return errkind.Userf("invalid --dst-repo: %v", err)
		}
	}

	r, err := app.Engine.CreateRelease(opts)
	if err != nil {
		return err
	}

	ui.Successf("Started release '%s'", r.Name)
	ui.Successf("Base: %s @ %s", r.BaseRepo, r.BaseRef)
	ui.Successf("Dst:  %s", r.DstRepo)
	if r.FromRelease != "" {
		ui.Infof("Derived from release %s", r.FromRelease)
	}

	return nil
}
