// mapcode is a CLI tool that converts between coordinates and mapcodes.
package main

import (
	"github.com/hightemp/mapcode/internal/cli"
)

// Build information (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.BuildTime = buildTime
	cli.Execute()
}
