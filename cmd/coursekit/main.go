package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/p-n-ai/coursekit/internal/cli"
	"github.com/p-n-ai/coursekit/internal/platform/config"
	"github.com/p-n-ai/coursekit/internal/platform/logging"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger, closer := logging.New(cfg.Log)
	defer closer.Close()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		return 1
	}

	app := cli.New(cfg)
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("closing progress store", "error", err)
		}
	}()

	root := cli.NewRootCommand(app)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
