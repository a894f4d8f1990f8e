package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"mediakit/internal/cli"
	"mediakit/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCommand(newCarveKitEngine)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			cli.PrintError(os.Stderr, err)
		}
		os.Exit(services.ExitCode(err))
	}
}
