package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dmgav/yugabyte-db/netutil"
)

var (
	resolveCmd = &cobra.Command{
		Use:   "resolve <address-list>",
		Short: "Resolve a comma-separated endpoint list into unique addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("resolve takes exactly one address list")
			}
			port, err := defaultPort(cmd)
			if err != nil {
				return err
			}

			addrs, err := netutil.ParseAddressList(cmd.Context(), args[0], port)
			if err != nil {
				return err
			}
			for _, addr := range addrs {
				fmt.Fprintln(cmd.OutOrStdout(), addr)
			}
			return nil
		},
	}
)

func init() {
	addDefaultPortFlag(resolveCmd.Flags())
}
