package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dmgav/yugabyte-db/ioutils"
	"github.com/dmgav/yugabyte-db/log"
	"github.com/dmgav/yugabyte-db/portalloc"
)

var (
	reserveCmd = &cobra.Command{
		Use:   "reserve",
		Short: "Reserve free ports and hold their locks until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			count, err := flags.GetInt("count")
			if err != nil {
				return err
			}
			if count < 1 {
				return errors.New("count must be at least 1")
			}
			portsFile, err := flags.GetString("ports-file")
			if err != nil {
				return err
			}
			lockDir, err := flags.GetString("lock-dir")
			if err != nil {
				return err
			}

			a := portalloc.New(&portalloc.Config{LockDir: lockDir})

			var (
				ports []string
				locks []*portalloc.PortLock
			)
			defer func() {
				for _, l := range locks {
					l.Release()
				}
			}()

			for i := 0; i < count; i++ {
				port, lock, err := a.AllocateFreePort(cmd.Context())
				if err != nil {
					return err
				}
				locks = append(locks, lock)
				ports = append(ports, strconv.Itoa(int(port)))
				fmt.Fprintln(cmd.OutOrStdout(), port)
			}

			if portsFile != "" {
				data := []byte(strings.Join(ports, "\n") + "\n")
				if err := ioutils.AtomicWriteFile(portsFile, data, 0o644); err != nil {
					return errors.Wrapf(err, "writing ports file %s", portsFile)
				}
			}

			start := time.Now()
			sigC := make(chan os.Signal, 1)
			signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
			sig := <-sigC
			log.G(cmd.Context()).Infof("received %v, releasing %d ports held for %s", sig, len(locks), units.HumanDuration(time.Since(start)))
			return nil
		},
	}
)

func init() {
	flags := reserveCmd.Flags()
	flags.IntP("count", "n", 1, "Number of ports to reserve")
	flags.String("ports-file", "", "Write the reserved ports to this file, one per line")
	flags.String("lock-dir", portalloc.DefaultLockDir, "Directory for cross-process port locks")
}
