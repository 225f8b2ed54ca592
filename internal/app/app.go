// Package app is the application layer between the CLI and the
// catalog controller. It constructs all dependencies from config and
// manages their lifecycle on Close.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"packdb/internal/config"
	"packdb/internal/database"
	"packdb/internal/packdb"
)

// closeTimeout bounds how long Close waits for queued catalog
// operations to drain before forcing shutdown.
const closeTimeout = 30 * time.Second

// App wires the config, the catalog store, and the controllers.
// The caller must call Close when done.
type App struct {
	cfg     *config.Config
	store   packdb.Store
	ctrl    *packdb.Controller
	async   *packdb.AsyncController
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// command identifies the CLI command being run (e.g. "server add", "find").
func NewApp(cfg *config.Config, command string) (*App, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, command)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	ctrl := packdb.NewController(store, &slogAdapter{l: logger})
	async := packdb.NewAsyncController(ctrl, &slogAdapter{l: logger})

	return &App{
		cfg:     cfg,
		store:   store,
		ctrl:    ctrl,
		async:   async,
		logFile: logFile,
	}, nil
}

// Controller returns the synchronous catalog controller.
func (a *App) Controller() *packdb.Controller { return a.ctrl }

// Async returns the asynchronous catalog controller.
func (a *App) Async() *packdb.AsyncController { return a.async }

// Close drains queued operations and shuts everything down.
// Closing the async controller also closes the underlying controller
// and store.
func (a *App) Close(ctx context.Context) error {
	err := a.async.Close(ctx, closeTimeout)

	if a.logFile != nil {
		a.logFile.Close()
	}

	return err
}
