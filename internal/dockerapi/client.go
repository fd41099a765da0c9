package dockerapi

import (
	"context"
	"errors"
	"time"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
)

const eventBufferSize = 100

// Client is the narrow view of the Docker Engine API used by the watcher.
type Client struct {
	cli    dockerClient
	logger zerolog.Logger
}

func NewClient(cli dockerClient, logger zerolog.Logger) *Client {
	return &Client{
		cli:    cli,
		logger: logger.With().Str("component", "dockerapi").Logger(),
	}
}

// SubscribeOptions narrows the lifecycle event stream.
type SubscribeOptions struct {
	// Since replays events from this instant, closing the gap between listing and subscribing.
	Since time.Time
	// Containers restricts events to these names or ids. Empty means all containers.
	Containers []string
}

// ListContainers returns the running containers.
func (c *Client) ListContainers(ctx context.Context) ([]domain.Container, error) {
	summaries, err := c.cli.ContainerList(ctx, container.ListOptions{All: false})
	if err != nil {
		return nil, classify("list containers", err)
	}
	out := make([]domain.Container, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, fromContainerSummary(s))
	}
	return out, nil
}

// InspectContainer returns the id, name and mounts of a container given its id or name.
func (c *Client) InspectContainer(ctx context.Context, idOrName string) (domain.Container, error) {
	info, err := c.cli.ContainerInspect(ctx, idOrName)
	if err != nil {
		return domain.Container{}, classify("inspect container "+idOrName, err)
	}
	ctr := fromInspectResponse(info)
	if ctr.Id == "" {
		return domain.Container{}, NewProtocolError("inspect container "+idOrName, errors.New("response carries no container id"))
	}
	return ctr, nil
}

// Exec creates an exec instance running cmd inside the container and starts it detached.
// The exit status of the command is not awaited.
func (c *Client) Exec(ctx context.Context, containerId string, cmd []string, user string) error {
	created, err := c.cli.ContainerExecCreate(ctx, containerId, container.ExecOptions{
		Cmd:  cmd,
		User: user,
	})
	if err != nil {
		return classify("create exec in "+containerId, err)
	}
	if created.ID == "" {
		return NewProtocolError("create exec in "+containerId, errors.New("response carries no exec id"))
	}
	if err := c.cli.ContainerExecStart(ctx, created.ID, container.ExecStartOptions{Detach: true}); err != nil {
		return classify("start exec "+created.ID, err)
	}
	return nil
}

// Subscribe opens the container start/die event stream. The event channel is closed when the
// stream ends. Unless ctx was cancelled, exactly one *StreamClosedError is then delivered on the
// error channel.
func (c *Client) Subscribe(ctx context.Context, opts SubscribeOptions) (<-chan domain.ContainerEvent, <-chan error) {
	out := make(chan domain.ContainerEvent, eventBufferSize)
	errs := make(chan error, 1)

	filterArgs := filters.NewArgs()
	filterArgs.Add("type", string(events.ContainerEventType))
	filterArgs.Add("event", string(domain.EventTypeContainerStarted))
	filterArgs.Add("event", string(domain.EventTypeContainerDied))
	for _, name := range opts.Containers {
		filterArgs.Add("container", name)
	}

	options := events.ListOptions{Filters: filterArgs}
	if !opts.Since.IsZero() {
		options.Since = opts.Since.Format(time.RFC3339Nano)
	}
	msgCh, errCh := c.cli.Events(ctx, options)

	go func() {
		defer close(errs)
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errCh:
				if ctx.Err() != nil {
					return
				}
				if !ok {
					errs <- NewStreamClosedError(nil)
					return
				}
				if client.IsErrConnectionFailed(err) {
					err = NewTransportError("events", err)
				}
				errs <- NewStreamClosedError(err)
				return
			case msg, ok := <-msgCh:
				if !ok {
					if ctx.Err() == nil {
						errs <- NewStreamClosedError(nil)
					}
					return
				}
				ev, convErr := fromEventsMessage(msg)
				if convErr != nil {
					c.logger.Debug().Err(convErr).Msg("Skipping docker event")
					continue
				}
				c.logger.Debug().Msgf("Received Docker event: %+v", ev)
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errs
}

func (c *Client) Close() error {
	return c.cli.Close()
}
