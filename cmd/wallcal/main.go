package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Root context, canceled on SIGINT/SIGTERM so `serve` can shut down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
