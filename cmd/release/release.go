package release

import (
	"github.com/spf13/cobra"
)

// Command is the parent command for all release subcommands
type Command struct{}

// Register registers the release command and all subcommands
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release life cycle",
		Long:  `Commands for starting, inspecting and finishing releases.`,
	}

	// Register subcommands
	start := &StartCommand{}
	start.Register(cmd)

	finish := &FinishCommand{}
	finish.Register(cmd)

	list := &ListCommand{}
	list.Register(cmd)

	info := &InfoCommand{}
	info.Register(cmd)

	parent.AddCommand(cmd)
}
