package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crypto_bot/pkg/logger"
)

func main() {
	logger.SetServiceName("crypto_ta")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
