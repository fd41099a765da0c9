package event

import (
	"context"

	"github.com/auto-dns/docker-mount-notify/internal/dockerapi"
	"github.com/auto-dns/docker-mount-notify/internal/domain"
)

type runtimeClient interface {
	ListContainers(ctx context.Context) ([]domain.Container, error)
	Subscribe(ctx context.Context, opts dockerapi.SubscribeOptions) (<-chan domain.ContainerEvent, <-chan error)
}
