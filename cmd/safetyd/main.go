package main

import (
	"os"

	"github.com/plc-visualizer/safety-dashboard/internal/cli"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cli.Version = Version
	cli.BuildTime = BuildTime
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
