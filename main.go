package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudmelt/webstack/internal/cli"
)

// version is stamped by the release pipeline.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	if err := cli.Execute(ctx, version); err != nil {
		// The CLI has already logged the failure detail; keep the exit path
		// quiet unless the error never made it through a logger.
		fmt.Fprintln(os.Stderr, "webstack:", err)
		os.Exit(1)
	}
}
