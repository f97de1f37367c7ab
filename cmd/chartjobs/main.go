package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chartjobs/cmd/chartjobs/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := commands.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
