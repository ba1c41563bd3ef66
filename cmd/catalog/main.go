//go:build !test

// Code coverage for main is ignored; the commands it runs are tested in cmd_test.go.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Printf("catalog failed: %v", err)
		os.Exit(1)
	}
}
