package manifest

import (
	"github.com/spf13/cobra"
)

// Command is the parent command for all manifest subcommands
type Command struct{}

// Register registers the manifest command and all subcommands
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Manifest operations",
		Long:  `Commands for creating, listing and inspecting release manifests.`,
	}

	// Register subcommands
	newCmd := &NewCommand{}
	newCmd.Register(cmd)

	list := &ListCommand{}
	list.Register(cmd)

	info := &InfoCommand{}
	info.Register(cmd)

	cp := &CopyCommand{}
	cp.Register(cmd)

	parent.AddCommand(cmd)
}
