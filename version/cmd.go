package version

import "github.com/spf13/cobra"

var (
	// Cmd can be added to other commands to provide a version subcommand with
	// the correct version of the network tools.
	Cmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number of the yb network tools",
		Run: func(cmd *cobra.Command, args []string) {
			PrintVersion()
		},
	}
)
