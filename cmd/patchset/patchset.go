package patchset

import (
	"github.com/spf13/cobra"
)

// Command is the parent command for all patchset subcommands
type Command struct{}

// Register registers the patchset command and all subcommands
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "patchset",
		Short: "Patch set operations",
		Long: `Commands for bringing patches into the store and inspecting them.

Patch sets are immutable once stored. Manifests reference them by UUID;
content is never copied or rewritten.`,
	}

	// Register subcommands
	add := &AddCommand{}
	add.Register(cmd)

	imp := &ImportCommand{}
	imp.Register(cmd)

	list := &ListCommand{}
	list.Register(cmd)

	info := &InfoCommand{}
	info.Register(cmd)

	parent.AddCommand(cmd)
}
