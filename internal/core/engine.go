package core

import (
	"context"
	"fmt"
	"time"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Engine drives the watch registry from container lifecycle events.
type Engine struct {
	logger   zerolog.Logger
	gen      generator
	registry *Registry
}

func NewEngine(logger zerolog.Logger, gen generator, registry *Registry) *Engine {
	return &Engine{
		logger:   logger.With().Str("component", "engine").Logger(),
		gen:      gen,
		registry: registry,
	}
}

func (e *Engine) handleEvent(ctx context.Context, evt domain.ContainerEvent) {
	id := evt.Container.Id
	if id == "" {
		return
	}
	switch {
	case evt.EventType.Attaches():
		if err := e.registry.Attach(ctx, id); err != nil {
			e.logger.Error().Err(err).Msgf("%s: failed to attach watchers", evt.Container.DisplayName())
		}
	case evt.EventType == domain.EventTypeContainerDied:
		e.registry.Detach(ctx, id)
	}
}

// Run handles lifecycle events one at a time until ctx is cancelled or the event stream ends.
// A broken stream is returned as an error; every watcher is closed before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info().Msg("Starting engine")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		e.registry.DetachAll(shutdownCtx)
		e.logger.Info().Msg("Engine stopped")
	}()

	eventCh, errCh := e.gen.Subscribe(ctx)
	for evt := range eventCh {
		e.logger.Debug().Msgf("Handling %s event for %s", evt.EventType, evt.Container.DisplayName())
		e.handleEvent(ctx, evt)
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("container lifecycle events: %w", err)
	}
	return ctx.Err()
}
