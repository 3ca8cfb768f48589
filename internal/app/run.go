package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/reportgrid/internal/ctxlog"
)

// Run serves the HTTP surface and the content-change intake until ctx is
// cancelled or one of them fails, then shuts both down.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.logger.Debug("App.Run method started.")

	failed := make(chan error, 2)
	if a.config.Listen != "" {
		if err := a.startServer(ctx, failed); err != nil {
			return err
		}
	} else {
		a.logger.Warn("HTTP server not started: disabled")
	}

	var wg sync.WaitGroup
	if a.source != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.logger.Info("📡 Listening for content changes.")
			if err := a.source.Listen(ctx, a.engine.HandleContentChanged); err != nil {
				failed <- fmt.Errorf("content-change source failed: %w", err)
			}
		}()
	} else {
		a.logger.Warn("No content-change source configured, triggers will not fire.")
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested.")
	case runErr = <-failed:
		a.logger.Error("Stopping after failure.", "error", runErr)
	}
	cancel()

	if err := a.closeServer(); err != nil && runErr == nil {
		runErr = err
	}
	wg.Wait()
	a.logger.Debug("App.Run method finished.")
	return runErr
}
