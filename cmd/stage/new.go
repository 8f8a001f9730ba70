package stage

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// NewCommand opens a stage on a manifest
type NewCommand struct {
	// Arguments
	Manifest string

	// Flags
	Author     string
	Email      string
	Tags       []string
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *NewCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "new <manifest>",
		Short: "Open a new stage",
		Long: `Open a new stage on a manifest.

The author defaults to the work repository's git identity. Tags mark the
stage's role in the branch name, e.g. rc=1 contributes "-rc.1".

Example:
  crt stage new m1 --tag rc=1
  crt stage new m1 --author "Jane Doe" --email jane@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().StringVar(&c.Author, "author", "", "Stage author name (default: work repo user.name)")
	cmd.Flags().StringVar(&c.Email, "email", "", "Stage author email (default: work repo user.email)")
	cmd.Flags().StringArrayVar(&c.Tags, "tag", nil, "Stage tag as name=N, repeatable")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *NewCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	author, err := resolveAuthor(app, c.Author, c.Email)
	if err != nil {
		return err
	}
	tags, err := parseTags(c.Tags)
	if err != nil {
		return err
	}

	stage, m, err := app.Engine.OpenStage(c.Manifest, author, tags)
	if err != nil {
		return err
	}

	ui.Successf("Opened stage %s on manifest %s", stage.Label(), m.DisplayName())
	ui.Successf("Author: %s", stage.Author)
	return nil
}
