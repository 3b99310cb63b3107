package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"schoolops/internal/app/cli"
	"schoolops/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(config.Load(), nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
