package db

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// SyncCommand downloads remote store objects into the local store
type SyncCommand struct {
	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *SyncCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the mirror into the local store",
		Long: `Download every mirror object the local store has not seen.

Objects already downloaded at their current version are skipped via the
etag ledger. Local-only objects are never deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run(cmd.Context())
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *SyncCommand) Run(ctx context.Context) error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	mir, err := app.Mirror(ctx)
	if err != nil {
		return err
	}

	result, err := mir.Sync(ctx)
	if err != nil {
		return err
	}

	ui.Print(ui.RenderMirrorSyncSummary(result.Downloaded, result.Unchanged))
	return nil
}
