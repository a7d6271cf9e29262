package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/bgmx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := runner.app()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) {
			logger.Fatal("please set the "+shared.EnvUsername+" environment variable", "error", err)
		}
		logger.Fatalf("application error: %v", err)
	}
}
