package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/reportgrid/internal/app"
	"github.com/vk/reportgrid/internal/cli"
)

// main is the entrypoint for the reportgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Content goes to outW, logs to logW.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	cmd, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	a, err := app.NewApp(ctx, logW, cmd.Config)
	if err != nil {
		return fmt.Errorf("application startup failed: %w", err)
	}
	defer a.Close()

	if cmd.Name == cli.CommandServe {
		return a.Run(ctx)
	}

	content, err := a.Resolve(ctx, cmd.Request)
	if err != nil {
		return err
	}
	if cmd.Output == "" {
		_, err = io.WriteString(outW, content.Body)
		return err
	}
	return os.WriteFile(cmd.Output, []byte(content.Body), 0o644)
}
