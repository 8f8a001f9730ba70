package db

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/ui"
)

// PushCommand publishes a manifest to the mirror
type PushCommand struct {
	// Arguments
	Manifest string

	// Flags
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *PushCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "push <manifest>",
		Short: "Push a manifest to the mirror",
		Long: `Upload a manifest, its release and its patch sets to the mirror.

Patch sets are immutable and skipped when already present. The manifest
and release uploads are guarded against remote changes this machine has
not synced; run a sync first when the push reports a remote conflict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Manifest = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run(cmd.Context())
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *PushCommand) Run(ctx context.Context) error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	m, err := app.Engine.ResolveManifest(c.Manifest)
	if err != nil {
		return err
	}

	mir, err := app.Mirror(ctx)
	if err != nil {
		return err
	}

	result, err := mir.Push(ctx, m.UUID)
	if err != nil {
		return err
	}

	ui.Print(ui.RenderMirrorPushSummary(result.Uploaded, result.Skipped))
	return nil
}
