package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmgav/yugabyte-db/netutil"
)

var (
	fqdnCmd = &cobra.Command{
		Use:   "fqdn",
		Short: "Print the local hostname and its fully qualified domain name",
		RunE: func(cmd *cobra.Command, args []string) error {
			hostname, err := netutil.Hostname()
			if err != nil {
				return err
			}
			fqdn, err := netutil.FQDN(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hostname: %s\n", hostname)
			fmt.Fprintf(cmd.OutOrStdout(), "fqdn: %s\n", fqdn)
			return nil
		},
	}
)
