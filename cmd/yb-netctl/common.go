package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addDefaultPortFlag is shared by the commands that parse endpoint lists.
func addDefaultPortFlag(flags *pflag.FlagSet) {
	flags.Uint16("default-port", 0, "Port to assume for endpoint entries that do not carry one")
}

func defaultPort(cmd *cobra.Command) (uint16, error) {
	return cmd.Flags().GetUint16("default-port")
}
