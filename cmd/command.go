package cmd

import "github.com/spf13/cobra"

// Command is a command group that registers itself and its subcommands
// with the root cobra command
type Command interface {
	Register(parent *cobra.Command)
}
