package main

import (
	"context"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli"
)

// Version information (set by ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	BuiltBy   = "unknown"
)

func main() {
	cmd := cli.NewRootCommand(Version, Commit, BuildTime, BuiltBy)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		cli.PrintError(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
