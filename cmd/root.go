package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/clyso/crt/cmd/db"
	"github.com/clyso/crt/cmd/manifest"
	"github.com/clyso/crt/cmd/patchset"
	"github.com/clyso/crt/cmd/publish"
	"github.com/clyso/crt/cmd/release"
	"github.com/clyso/crt/cmd/stage"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crt",
	Short: "Release patch tracking tool",
	Long: `crt manages downstream releases assembled from upstream patches.

Pull requests are ingested into a content-addressed patch store, composed
into manifests of staged patch sets, and materialized as reproducible git
branches. Finishing a release tags the final branch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// The process exit code encodes the failure category.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.Error(err.Error())
		os.Exit(errkind.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: $XDG_CONFIG_HOME/crt/config.yaml)")

	// Register all commands
	commands := []Command{
		&release.Command{},
		&manifest.Command{},
		&stage.Command{},
		&patchset.Command{},
		&publish.Command{},
		&db.Command{},
	}

	for _, cmd := range commands {
		cmd.Register(rootCmd)
	}
}
