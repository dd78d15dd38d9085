// Package main is the entrypoint for querygate.
// One binary serves the gateway (querygate serve) and talks to it (fetch, doctor).
package main

import (
	"os"

	"github.com/canonica-labs/querygate/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.New().Execute())
}
