package stage

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/model"
)

// Command is the parent command for all stage subcommands
type Command struct{}

// Register registers the stage command and all subcommands
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Stage operations",
		Long: `Commands for staging patch sets into a manifest.

A stage is an append-only batch of patch sets. Exactly one stage of a
manifest can be open; committing freezes its patch set sequence.`,
	}

	// Register subcommands
	newCmd := &NewCommand{}
	newCmd.Register(cmd)

	add := &AddCommand{}
	add.Register(cmd)

	commit := &CommitCommand{}
	commit.Register(cmd)

	abort := &AbortCommand{}
	abort.Register(cmd)

	info := &InfoCommand{}
	info.Register(cmd)

	amend := &AmendCommand{}
	amend.Register(cmd)

	parent.AddCommand(cmd)
}

// resolveAuthor builds the stage author from flags, falling back to the
// work repository's git identity for unset fields
func resolveAuthor(app *cli.App, name, email string) (model.Author, error) {
	if name == "" || email == "" {
		if repo, err := app.WorkRepo(); err == nil {
			if gitName, gitEmail, err := repo.UserIdentity(); err == nil {
				if name == "" {
					name = gitName
				}
				if email == "" {
					email = gitEmail
				}
			}
		}
	}
	if name == "" || email == "" {
		return model.Author{}, errkind.Userf("stage author unknown, pass --author and --email or configure user.name and user.email in the work repository")
	}
	return model.Author{Name: name, Email: email}, nil
}

// parseTags parses repeated name=N tag flags
func parseTags(args []string) ([]model.Tag, error) {
	if len(args) == 0 {
		return nil, nil
	}
	tags := make([]model.Tag, len(args))
	for i, arg := range args {
		tag, err := model.ParseTag(arg)
		if err != nil {
			return nil, errkind.Userf("invalid --tag: %v", err)
		}
		tags[i] = tag
	}
	return tags, nil
}
