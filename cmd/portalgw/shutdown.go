package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/opencampus/portalgw/internal/config"
	"github.com/opencampus/portalgw/internal/observability"
)

// run starts the server and the config watcher, then blocks until a
// shutdown signal arrives.
func (app *application) run() {
	watcher := app.startConfigWatcher()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start(context.Background())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		app.logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			app.logger.Error("server failed", observability.Error(err))
		}
	}

	app.shutdown(watcher)
}

func (app *application) startConfigWatcher() *config.Watcher {
	watcher, err := config.NewWatcher(app.configPath, func(newCfg *config.PortalConfig) {
		app.applyReload(newCfg)
	}, config.WithLogger(app.logger))

	if err != nil {
		app.logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		app.logger.Warn("failed to start config watcher", observability.Error(err))
	}

	return watcher
}

// shutdown drains in-flight requests and releases every dependency in
// reverse startup order.
func (app *application) shutdown(watcher *config.Watcher) {
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		app.config.Server.ShutdownTimeout.Duration(),
	)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	if app.redisStore != nil {
		if err := app.redisStore.Close(); err != nil {
			app.logger.Error("failed to close redis store", observability.Error(err))
		}
	}

	if app.pgSink != nil {
		if err := app.pgSink.Close(); err != nil {
			app.logger.Error("failed to close postgres log sink", observability.Error(err))
		}
	}

	app.logger.Info("portalgw stopped")
}
