package manifest

import (
	"github.com/spf13/cobra"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/ui"
)

// NewCommand creates a manifest under a release
type NewCommand struct {
	// Arguments
	Release string

	// Flags
	Name       string
	From       string
	ConfigPath string

	// Clients (can be mocked in tests)
	App *cli.App
}

// Register registers the command with cobra
func (c *NewCommand) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "new <release>",
		Short: "Create a new manifest",
		Long: `Create a new manifest under a release.

With --from, the committed stages of the base manifest are carried
forward by reference; patch content is shared, never copied. The new
manifest starts without an open stage.

Example:
  crt manifest new ces-v19.2.1 --name m1
  crt manifest new ces-v19.2.1 --name m2 --from m1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Release = args[0]
			c.ConfigPath, _ = cmd.Flags().GetString("config")
			return c.Run()
		},
	}

	cmd.Flags().StringVar(&c.Name, "name", "", "Optional unique alias for the manifest")
	cmd.Flags().StringVar(&c.From, "from", "", "Manifest to carry committed stages forward from")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *NewCommand) Run() error {
	app, err := cli.Ensure(c.App, c.ConfigPath)
	if err != nil {
		return err
	}

	m, err := app.Engine.CreateManifest(c.Release, c.Name, c.From)
	if err != nil {
		return err
	}

	ui.Successf("Created manifest %s in release %s", m.DisplayName(), m.Release)
	if m.FromUUID != "" {
		from := m.FromName
		if from == "" {
			from = model.ShortUUID(m.FromUUID)
		}
		ui.Infof("Carried %d committed stages forward from %s", len(m.Stages), from)
	}
	ui.Infof("UUID: %s", m.UUID)

	return nil
}
