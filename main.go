package main

import (
	"os"

	"github.com/sadopc/ctfpad/internal/cli"
)

// Version information, set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)

	// Errors are already printed in color by the cli package
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
