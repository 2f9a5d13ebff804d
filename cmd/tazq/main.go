// Package main is the entry point for the tazq CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tazq/internal/backend/jsonfile"
	"tazq/internal/backend/writebehind"
	"tazq/internal/cli"
	"tazq/internal/commands"
	"tazq/internal/config"
	"tazq/internal/service"
	"tazq/internal/store"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// The task document sits behind the write-behind queue; closing the
	// queue flushes whatever the command saved.
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, func(context.Context) error, error) {
		q := writebehind.New(jsonfile.New(cfg.TasksPath()), cfg.Save)
		return store.New(ctx, q), q.Close, nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
