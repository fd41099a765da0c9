package core

import (
	"context"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
)

type generator interface {
	Subscribe(ctx context.Context) (<-chan domain.ContainerEvent, <-chan error)
}

type inspector interface {
	InspectContainer(ctx context.Context, idOrName string) (domain.Container, error)
}

type resolver interface {
	Resolve(c domain.Container) []domain.WatchTarget
}

type statusPublisher interface {
	Publish(ctx context.Context, c domain.Container, targets []domain.WatchTarget) error
	Unpublish(ctx context.Context, containerId string) error
}

// Handle is an open watch on one target.
type Handle interface {
	Target() domain.WatchTarget
	Close() error
}

// OpenFunc opens a watch for a target.
type OpenFunc func(target domain.WatchTarget) (Handle, error)
