package patchset

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/ingest"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/ui"
)

// AddCommand ingests a pull request into the store
type AddCommand struct {
	// Arguments
	Repo   model.Repo
	Number int

	// Flags
	Token      string
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *AddCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "add <owner>/<repo> <pr-number>",
		Short: "Ingest a pull request",
		Long: `Fetch a pull request from GitHub and store it as a patch set.

The patch set snapshots the pull request at its current head. Ingesting
an unchanged pull request again returns the existing patch set; a new
head creates a new one linked to the same pull request.

A single owner/repo#number or pull request URL works too.

Example:
  crt patchset add ceph/ceph 61234
  crt patchset add ceph/ceph#61234
  crt patchset add https://github.com/ceph/ceph/pull/61234`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if len(args) == 2 {
				c.Repo, err = model.ParseRepo(args[0])
				if err != nil {
					return errkind.Userf("%v", err)
				}
				c.Number, err = strconv.Atoi(args[1])
				if err != nil || c.Number <= 0 {
					return errkind.Userf("invalid pull request number %q", args[1])
				}
			} else {
				c.Repo, c.Number, err = ingest.ParsePRRef(args[0])
				if err != nil {
					return errkind.Userf("%v", err)
				}
			}
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&c.Token, "token", "", "GitHub token (default: config, then gh auth token)")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *AddCommand) Run(ctx context.Context) error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	ing, err := app.Ingester(c.Token)
	if err != nil {
		return err
	}

	result, err := ing.Ingest(ctx, c.Repo, c.Number)
	if err != nil {
		return err
	}

	if result.Duplicate {
		ui.Infof("%s#%d is unchanged, already stored as %s", c.Repo, c.Number, result.UUID)
		return nil
	}

	ui.Successf("Ingested %s#%d: '%s'", c.Repo, c.Number, result.PatchSet.Title)
	ui.Successf("%d patches at head %s", len(result.PatchSet.Patches), model.ShortUUID(result.PatchSet.HeadSHA))
	ui.Infof("UUID: %s", result.UUID)

	history, err := app.Store.ListPRHistory(c.Repo.Owner, c.Repo.Name, c.Number)
	if err != nil {
		return err
	}
	if len(history) > 1 {
		ui.Infof("The pull request was stored %d times before at earlier heads; stages referencing those keep their snapshots", len(history)-1)
	}
	return nil
}
