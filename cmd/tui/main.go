package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robert-malhotra/go-couch-client/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connection defaults come from COUCH_* variables and an optional file.
	cfg, err := config.Load(os.Getenv("COUCH_CONFIG"), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tui := NewTUI(ctx, cfg)
	go func() {
		<-ctx.Done()
		tui.Stop()
	}()

	if err := tui.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
