package stage

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/ui"
)

// AmendCommand updates a stage's author or tags
type AmendCommand struct {
	// Arguments
	Manifest string
	Stage    string

	// Flags
	Author     string
	Email      string
	Tags       []string
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *AmendCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "amend <manifest> <stage-uuid>",
		Short: "Amend a stage's author or tags",
		Long: `Update the author or tags of a stage.

Both stay amendable after the stage is committed; the patch set sequence
does not. Amending tags changes the branch name of future
materializations.

Example:
  crt stage amend m1 7c9e6679-7425-40de-944b-e07fc1f90ae7 --tag rc=2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			c.Stage = args[1]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().StringVar(&c.Author, "author", "", "New stage author name")
	cmd.Flags().StringVar(&c.Email, "email", "", "New stage author email")
	cmd.Flags().StringArrayVar(&c.Tags, "tag", nil, "New stage tags as name=N, repeatable; replaces all tags")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *AmendCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	if c.Author == "" && c.Email == "" && len(c.Tags) == 0 {
		return errkind.Userf("nothing to amend, pass --author/--email or --tag")
	}
	if (c.Author == "") != (c.Email == "") {
		return errkind.Userf("--author and --email must be set together")
	}

	var author *model.Author
	if c.Author != "" {
		author = &model.Author{Name: c.Author, Email: c.Email}
	}
	tags, err := parseTags(c.Tags)
	if err != nil {
		return err
	}

	stage, err := app.Engine.AmendStage(c.Manifest, c.Stage, author, tags)
	if err != nil {
		return err
	}

	ui.Successf("Amended stage %s", stage.Label())
	if author != nil {
		ui.Successf("Author: %s", stage.Author)
	}
	return nil
}
