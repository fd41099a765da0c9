package core

import (
	"context"
	"errors"
	"sync"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/auto-dns/docker-mount-notify/internal/watch"
	"github.com/rs/zerolog"
)

type registryEntry struct {
	name     string
	watchers []Handle
}

// Registry tracks the active watchers of each container. A container id present in the
// registry has exactly one open watcher per relevant bind mount; an absent id has none.
type Registry struct {
	api       inspector
	resolver  resolver
	open      OpenFunc
	publisher statusPublisher
	logger    zerolog.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewRegistry(api inspector, res resolver, open OpenFunc, publisher statusPublisher, logger zerolog.Logger) *Registry {
	return &Registry{
		api:       api,
		resolver:  res,
		open:      open,
		publisher: publisher,
		logger:    logger.With().Str("component", "registry").Logger(),
		entries:   make(map[string]*registryEntry),
	}
}

// FSOpener opens real filesystem watches that report settled changes to onChange.
func FSOpener(opts watch.Options, onChange watch.ChangeFunc, logger zerolog.Logger) OpenFunc {
	return func(target domain.WatchTarget) (Handle, error) {
		w, err := watch.Open(target, opts, onChange, logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

// Attach inspects the container and opens one watcher per relevant bind mount. A container that
// is already attached is detached first. Targets that cannot be watched are skipped. A container
// without relevant mounts still gets an (empty) entry.
func (r *Registry) Attach(ctx context.Context, idOrName string) error {
	c, err := r.api.InspectContainer(ctx, idOrName)
	if err != nil {
		return err
	}
	name := c.DisplayName()

	r.Detach(ctx, c.Id)

	entry := &registryEntry{name: name}
	for _, target := range r.resolver.Resolve(c) {
		h, err := r.open(target)
		if err != nil {
			var fsErr *watch.FilesystemError
			if errors.As(err, &fsErr) {
				r.logger.Warn().Err(err).Msgf("%s: [skipping] %s => %s", name, target.HostPath, target.ContainerPath)
				continue
			}
			r.logger.Error().Err(err).Msgf("%s: [skipping] %s => %s", name, target.HostPath, target.ContainerPath)
			continue
		}
		entry.watchers = append(entry.watchers, h)
		r.logger.Info().Msgf("%s: [watching] %s => %s", name, target.HostPath, target.ContainerPath)
	}

	r.mu.Lock()
	previous := r.entries[c.Id]
	r.entries[c.Id] = entry
	r.mu.Unlock()
	// A concurrent Attach for the same id may have won the race; never leave its watchers open.
	if previous != nil {
		r.closeEntry(c.Id, previous)
	}

	if err := r.publisher.Publish(ctx, c, targetsOf(entry)); err != nil {
		r.logger.Warn().Err(err).Msgf("%s: failed to publish status", name)
	}
	return nil
}

// Detach closes every watcher of the container and forgets it. It reports whether the container
// was attached; detaching an unknown id does nothing.
func (r *Registry) Detach(ctx context.Context, containerId string) bool {
	r.mu.Lock()
	entry, ok := r.entries[containerId]
	delete(r.entries, containerId)
	r.mu.Unlock()
	if !ok {
		return false
	}

	r.closeEntry(containerId, entry)
	if err := r.publisher.Unpublish(ctx, containerId); err != nil {
		r.logger.Warn().Err(err).Msgf("%s: failed to unpublish status", entry.name)
	}
	return true
}

// DetachAll detaches every container.
func (r *Registry) DetachAll(ctx context.Context) {
	for _, id := range r.ContainerIds() {
		r.Detach(ctx, id)
	}
}

// Has reports whether the container has an entry.
func (r *Registry) Has(containerId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[containerId]
	return ok
}

// Targets returns the watched targets of a container in mount order.
func (r *Registry) Targets(containerId string) []domain.WatchTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[containerId]
	if !ok {
		return nil
	}
	return targetsOf(entry)
}

func (r *Registry) ContainerIds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) closeEntry(containerId string, entry *registryEntry) {
	if len(entry.watchers) == 0 {
		return
	}
	for _, h := range entry.watchers {
		if err := h.Close(); err != nil {
			r.logger.Warn().Err(err).Str("container_id", containerId).Str("host_path", h.Target().HostPath).Msg("Error closing watcher")
		}
	}
	r.logger.Info().Msgf("%s: [closing]", entry.name)
}

func targetsOf(entry *registryEntry) []domain.WatchTarget {
	targets := make([]domain.WatchTarget, 0, len(entry.watchers))
	for _, h := range entry.watchers {
		targets = append(targets, h.Target())
	}
	return targets
}
