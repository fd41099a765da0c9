package propagate

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/rs/zerolog"
)

type execer interface {
	Exec(ctx context.Context, containerId string, cmd []string, user string) error
}

// Propagator forces a metadata event on a path inside a container by running a mode-preserving
// chmod on it.
type Propagator struct {
	ctx    context.Context
	api    execer
	user   string
	logger zerolog.Logger
}

// New returns a Propagator whose exec calls run under ctx, so they stop at shutdown.
func New(ctx context.Context, api execer, user string, logger zerolog.Logger) *Propagator {
	return &Propagator{
		ctx:    ctx,
		api:    api,
		user:   user,
		logger: logger.With().Str("component", "propagate").Logger(),
	}
}

// Destination joins the container-side mount path and a host-relative path.
func Destination(containerPath, relPath string) string {
	if relPath == "" {
		return containerPath
	}
	rel := strings.ReplaceAll(filepath.ToSlash(relPath), `\`, "/")
	return strings.TrimSuffix(containerPath, "/") + "/" + strings.TrimPrefix(rel, "/")
}

func Command(dest string) []string {
	return []string{"chmod", "+", dest}
}

// Propagate runs the chmod for one settled change. Failures are logged and not retried; the next
// change to the same path triggers a new attempt.
func (p *Propagator) Propagate(target domain.WatchTarget, relPath string) {
	dest := Destination(target.ContainerPath, relPath)
	if err := p.api.Exec(p.ctx, target.ContainerId, Command(dest), p.user); err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.logger.Error().Err(err).Str("container", target.ContainerName).Str("path", dest).Msg("Failed to propagate change")
		return
	}
	p.logger.Info().Msgf("%s: %s", target.ContainerName, dest)
}
