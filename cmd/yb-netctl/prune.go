package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dmgav/yugabyte-db/hostport"
	"github.com/dmgav/yugabyte-db/netutil"
)

var (
	pruneCmd = &cobra.Command{
		Use:   "prune <address> <address-list> [<address-list>...]",
		Short: "Remove an address from endpoint lists and print the remaining endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("prune takes an address and at least one address list")
			}
			port, err := defaultPort(cmd)
			if err != nil {
				return err
			}

			target, err := hostport.Parse(args[0], port)
			if err != nil {
				return err
			}
			addr, err := netutil.ResolveFirst(cmd.Context(), target)
			if err != nil {
				return err
			}

			remaining, err := hostport.RemoveFromLists(cmd.Context(), addr, args[1:], port)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hostport.Join(remaining))
			return nil
		},
	}
)

func init() {
	addDefaultPortFlag(pruneCmd.Flags())
}
