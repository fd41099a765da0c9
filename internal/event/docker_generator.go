package event

import (
	"context"
	"fmt"
	"time"

	"github.com/auto-dns/docker-mount-notify/internal/dockerapi"
	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/rs/zerolog"
)

const bufferSize = 100

type DockerGenerator struct {
	logger zerolog.Logger
	cli    runtimeClient
	filter Filter
	follow bool
}

// NewDockerGenerator returns a generator for the containers selected by filter. Without follow,
// only the containers running at startup are emitted.
func NewDockerGenerator(cli runtimeClient, filter Filter, follow bool, logger zerolog.Logger) *DockerGenerator {
	return &DockerGenerator{
		logger: logger.With().Str("component", "event_generator").Logger(),
		cli:    cli,
		filter: filter,
		follow: follow,
	}
}

// Subscribe emits an initial detection for every matching running container, followed by
// start/die events. The event channel closes when the stream ends or ctx is cancelled; a
// non-nil terminal error, if any, is then available on the error channel.
func (dg *DockerGenerator) Subscribe(ctx context.Context) (<-chan domain.ContainerEvent, <-chan error) {
	out := make(chan domain.ContainerEvent, bufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)

		since := time.Now()

		// Process initial list of containers
		containers, err := dg.cli.ListContainers(ctx)
		if err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("listing containers: %w", err)
			}
			return
		}
		for _, c := range containers {
			if !dg.filter.Matches(c) {
				continue
			}
			select {
			case out <- domain.ContainerEvent{Container: c, EventType: domain.EventTypeInitialContainerDetection}:
			case <-ctx.Done():
				dg.logger.Info().Msg("Docker event generator cancelled during initial emit")
				return
			}
		}

		if !dg.follow {
			dg.logger.Info().Msg("Not following container lifecycle events")
			<-ctx.Done()
			return
		}

		eventCh, errCh := dg.cli.Subscribe(ctx, dockerapi.SubscribeOptions{
			Since:      since,
			Containers: dg.filter,
		})
		for ev := range eventCh {
			if !dg.filter.Matches(ev.Container) {
				dg.logger.Debug().Msgf("Ignoring event for unmatched container %s", ev.Container.DisplayName())
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err, ok := <-errCh; ok && err != nil {
			errs <- err
		}
	}()

	return out, errs
}
