// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Orchestrator is the round loop the App owns.
type Orchestrator interface {
	Run(ctx context.Context) error
}

// App owns the check loop and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	orchestrator Orchestrator
}

// NewApp creates a new App.
func NewApp(logger zerolog.Logger, manager Manager, orchestrator Orchestrator) *App {
	return &App{logger: logger, manager: manager, orchestrator: orchestrator}
}

// Run starts the listener and the round loop and blocks until ctx is
// cancelled or the listener fails. Either way both are stopped.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}
	if a.orchestrator == nil {
		return ErrMissingOrchestrator
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.orchestrator.Run(ctx)
	})

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			a.logger.Error().Err(err).Str("event", "app.listener_failed").Msg("listener stopped with error")
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
