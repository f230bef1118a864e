package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the top-level tombers command.
var RootCmd = &cobra.Command{
	Use:           "tombers",
	Short:         "Tombers CLI",
	Long:          "Command line interface for the Tombers projects API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}
