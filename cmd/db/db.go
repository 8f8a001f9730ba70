package db

import (
	"github.com/spf13/cobra"
)

// Command is the parent command for all db subcommands
type Command struct{}

// Register registers the db command and all subcommands
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Store mirror operations",
		Long: `Commands for exchanging the local store with the shared S3 mirror.

The mirror carries the same object layout as the local store. Push
publishes a manifest with everything it references; sync pulls objects
other machines pushed.`,
	}

	// Register subcommands
	sync := &SyncCommand{}
	sync.Register(cmd)

	push := &PushCommand{}
	push.Register(cmd)

	parent.AddCommand(cmd)
}
