package version

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	// Package is filled at linking time
	Package = "github.com/dmgav/yugabyte-db"

	// Version holds the complete version number. Filled in at linking time.
	Version = "0.1.0+unknown"

	// GitCommit is filled with the Git revision being used to build the
	// program at linking time.
	GitCommit = ""
)

// PrintVersion prints the version to stdout.
func PrintVersion() {
	fmt.Printf("%s %s", filepath.Base(os.Args[0]), Version)
	if GitCommit != "" {
		fmt.Printf(", build %s", GitCommit)
	}
	fmt.Println()
}
