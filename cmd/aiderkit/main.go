package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hugo-lorenzo-mato/aiderkit/cmd/aiderkit/cmd"
)

// Version information, set with -ldflags "-X main.version=..." at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersion(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
